package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/habiliai/aurora/config"
	"github.com/habiliai/aurora/errors"
)

type (
	Request struct {
		Model    string
		Messages []Message
		Contract *Contract
	}

	// Gateway performs one structured completion. On success out holds the
	// decoded payload. Every error is a *Failure and out is left untouched.
	// Gateways never retry.
	Gateway interface {
		Complete(ctx context.Context, req Request, out any) error
	}

	FailureKind string

	Failure struct {
		Kind     FailureKind
		Model    string
		Contract string
		Err      error
	}
)

const (
	FailureTransport FailureKind = "transport"
	FailureParse     FailureKind = "parse"
	FailureContract  FailureKind = "contract"
)

func (f *Failure) Error() string {
	return fmt.Sprintf("llm %s failure (model=%s, contract=%s): %v", f.Kind, f.Model, f.Contract, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func (f *Failure) Is(target error) bool {
	return target == errors.ErrCompletion
}

func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}

func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

func newFailure(kind FailureKind, req Request, err error) *Failure {
	f := &Failure{
		Kind:  kind,
		Model: req.Model,
		Err:   err,
	}
	if req.Contract != nil {
		f.Contract = req.Contract.Name
	}
	return f
}

// decodeFailure classifies an error returned by Contract.Decode.
func decodeFailure(req Request, err error) *Failure {
	if errors.Is(err, ErrMalformed) {
		return newFailure(FailureParse, req, err)
	}
	return newFailure(FailureContract, req, err)
}

func checkRequest(req Request) error {
	if req.Contract == nil {
		return errors.Wrapf(errors.ErrInvalidParams, "request has no contract")
	}
	if req.Model == "" {
		return errors.Wrapf(errors.ErrInvalidParams, "request has no model")
	}
	if len(req.Messages) == 0 {
		return errors.Wrapf(errors.ErrInvalidParams, "request has no messages")
	}
	return nil
}

// NewGateway builds the gateway for the configured provider.
func NewGateway(conf *config.ModelConfig, logger *slog.Logger) (Gateway, error) {
	switch conf.Provider {
	case config.ProviderOpenAI, "":
		return NewOpenAIGateway(conf, logger), nil
	case config.ProviderAnthropic:
		return NewAnthropicGateway(conf, logger), nil
	default:
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "unknown provider %q", conf.Provider)
	}
}
