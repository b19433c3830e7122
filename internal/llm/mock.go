package llm

import (
	"context"
	"sync"
	"time"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Text  string
	Usage Usage
	Err   error

	// Delay holds the call for this long before answering. A context
	// deadline shorter than Delay makes the call fail with the context
	// error, which is how tests simulate provider timeouts.
	Delay time.Duration
}

// MockProvider is a deterministic Provider for testing.
// It returns canned responses in FIFO order and records all requests.
type MockProvider struct {
	name string

	mu        sync.Mutex
	responses []MockResponse
	repeat    *MockResponse
	Calls     []Request
	Deadlines []time.Duration
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{name: "mock", responses: responses}
}

// NewNamedMockProvider creates a MockProvider reporting the given name.
func NewNamedMockProvider(name string, responses ...MockResponse) *MockProvider {
	return &MockProvider{name: name, responses: responses}
}

// Generate returns the next canned response. Once the queue is empty it
// returns the response set with Repeat, or ErrConnection.
func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	if dl, ok := ctx.Deadline(); ok {
		m.Deadlines = append(m.Deadlines, time.Until(dl))
	} else {
		m.Deadlines = append(m.Deadlines, 0)
	}

	var resp MockResponse
	switch {
	case len(m.responses) > 0:
		resp = m.responses[0]
		m.responses = m.responses[1:]
	case m.repeat != nil:
		resp = *m.repeat
	default:
		m.mu.Unlock()
		return nil, &ErrConnection{}
	}
	m.mu.Unlock()

	if resp.Delay > 0 {
		if err := sleep(ctx, resp.Delay); err != nil {
			return nil, err
		}
	}

	if resp.Err != nil {
		return nil, resp.Err
	}

	return &Response{
		Text:       resp.Text,
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// Name returns the configured provider name.
func (m *MockProvider) Name() string {
	return m.name
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// Repeat sets the response returned for every call once the queue is empty.
func (m *MockProvider) Repeat(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repeat = &resp
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
