package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/habiliai/aurora/engine"
	"github.com/habiliai/aurora/entity"
	"github.com/habiliai/aurora/history"
	"github.com/habiliai/aurora/internal/mytesting"
	"github.com/habiliai/aurora/memory"
	memorytest "github.com/habiliai/aurora/memory/test"
	"github.com/habiliai/aurora/server"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type TurnsMock struct {
	mock.Mock
}

func (m *TurnsMock) Run(ctx context.Context, text string) (*engine.TurnResult, error) {
	args := m.Called(ctx, text)
	res, _ := args.Get(0).(*engine.TurnResult)
	return res, args.Error(1)
}

func (m *TurnsMock) ClearHistory(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type HandlerTestSuite struct {
	mytesting.Suite

	turns    *TurnsMock
	history  *history.InMemoryStore
	memories *memory.Service
	server   *httptest.Server
}

func (s *HandlerTestSuite) SetupTest() {
	s.Suite.SetupTest()

	s.turns = &TurnsMock{}
	s.history = history.NewInMemoryStore()
	s.memories = memory.NewService(memory.NewInMemoryStore(), memorytest.NewFakeEmbedder(32))
	s.server = httptest.NewServer(server.NewHandler(s.turns, s.history, s.memories, nil))
}

func (s *HandlerTestSuite) TearDownTest() {
	s.server.Close()
	s.Suite.TearDownTest()
}

func TestHandler(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) do(method, path string, body any) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequestWithContext(s, method, s.server.URL+path, &buf)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *HandlerTestSuite) decode(resp *http.Response, out any) {
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
}

func (s *HandlerTestSuite) TestPostTurn() {
	s.turns.On("Run", mock.Anything, "hello").Return(&engine.TurnResult{
		TurnID: "turn-1",
		Answer: "Hi there!",
		Mood:   engine.MoodHappy,
	}, nil).Once()

	resp := s.do(http.MethodPost, "/turns", server.TurnRequest{Text: "hello"})
	s.Equal(http.StatusOK, resp.StatusCode)

	var out server.TurnResponse
	s.decode(resp, &out)
	s.Equal(server.TurnResponse{TurnID: "turn-1", Answer: "Hi there!", Mood: "happy"}, out)
	s.turns.AssertExpectations(s.T())
}

func (s *HandlerTestSuite) TestPostTurnOutlivesClientDisconnect() {
	release := make(chan struct{})
	turnErr := make(chan error, 1)
	s.turns.On("Run", mock.Anything, "hello").Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		<-release
		turnErr <- ctx.Err()
	}).Return(&engine.TurnResult{TurnID: "turn-1", Answer: "Hi"}, nil).Once()

	ctx, cancel := context.WithTimeout(s, 100*time.Millisecond)
	defer cancel()
	body, err := json.Marshal(server.TurnRequest{Text: "hello"})
	s.Require().NoError(err)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.server.URL+"/turns", bytes.NewReader(body))
	s.Require().NoError(err)

	_, err = s.server.Client().Do(req)
	s.Require().Error(err)

	// give the server time to notice the closed connection
	time.Sleep(100 * time.Millisecond)
	close(release)

	select {
	case err := <-turnErr:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.Fail("turn did not finish")
	}
}

func (s *HandlerTestSuite) TestPostTurnRejectsEmptyText() {
	resp := s.do(http.MethodPost, "/turns", server.TurnRequest{Text: "  "})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.turns.AssertNotCalled(s.T(), "Run", mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestPostTurnHistoryFailure() {
	s.turns.On("Run", mock.Anything, "hello").Return(nil, context.DeadlineExceeded).Once()

	resp := s.do(http.MethodPost, "/turns", server.TurnRequest{Text: "hello"})
	s.Equal(http.StatusInternalServerError, resp.StatusCode)
}

func (s *HandlerTestSuite) TestMessages() {
	at := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	s.Require().NoError(s.history.Append(s, entity.NewUserMessage("one", at)))
	s.Require().NoError(s.history.Append(s, entity.NewAssistantMessage("two", "happy", at.Add(time.Second))))
	s.Require().NoError(s.history.Append(s, entity.NewUserMessage("three", at.Add(2*time.Second))))

	resp := s.do(http.MethodGet, "/messages?limit=2", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var out []server.Message
	s.decode(resp, &out)
	s.Require().Len(out, 2)
	s.Equal("two", out[0].Content)
	s.Equal("assistant", out[0].Role)
	s.Equal("happy", out[0].Mood)
	s.Equal("three", out[1].Content)

	resp = s.do(http.MethodGet, "/messages?limit=zero", nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *HandlerTestSuite) TestClearMessages() {
	s.turns.On("ClearHistory", mock.Anything).Return(nil).Once()

	resp := s.do(http.MethodDelete, "/messages", nil)
	s.Equal(http.StatusNoContent, resp.StatusCode)
	s.turns.AssertExpectations(s.T())
}

func (s *HandlerTestSuite) TestMemories() {
	peanuts, err := s.memories.AddRecord(s, "The user is allergic to peanuts", memory.CategoryBoundaries, memory.ImportanceCritical)
	s.Require().NoError(err)
	chess, err := s.memories.AddRecord(s, "The user plays chess on Sundays", memory.CategoryHabits, memory.ImportanceMedium)
	s.Require().NoError(err)

	var all []server.Record
	s.decode(s.do(http.MethodGet, "/memories", nil), &all)
	s.Len(all, 2)

	var critical []string
	s.decode(s.do(http.MethodGet, "/memories/critical", nil), &critical)
	s.Equal([]string{"The user is allergic to peanuts"}, critical)

	var found []server.Record
	resp := s.do(http.MethodPost, "/memories/search", server.SearchRequest{Query: "The user plays chess on Sundays", K: 5})
	s.Equal(http.StatusOK, resp.StatusCode)
	s.decode(resp, &found)
	s.Require().Len(found, 1)
	s.Equal(chess.Record.ID, found[0].ID)
	s.Equal("habits", found[0].Category)

	resp = s.do(http.MethodPost, "/memories/search", server.SearchRequest{Query: ""})
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	resp = s.do(http.MethodDelete, "/memories/"+peanuts.Record.ID, nil)
	s.Equal(http.StatusNoContent, resp.StatusCode)

	s.decode(s.do(http.MethodGet, "/memories/critical", nil), &critical)
	s.Empty(critical)
}

func (s *HandlerTestSuite) TestHealth() {
	resp := s.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
}
