package adapter

import (
	"context"
	"fmt"

	"github.com/zjrosen/clilm/internal/lm"
	"github.com/zjrosen/clilm/internal/log"
)

// Predictor ties a signature, a chat adapter, and an LM into a single
// callable prediction.
type Predictor struct {
	sig     Signature
	adapter *ChatAdapter
	lm      *lm.LM
}

// NewPredictor creates a Predictor for the signature spec.
func NewPredictor(spec string, model *lm.LM) (*Predictor, error) {
	sig, err := ParseSignature(spec)
	if err != nil {
		return nil, err
	}
	return &Predictor{sig: sig, adapter: NewChatAdapter(), lm: model}, nil
}

// Signature returns the predictor's parsed signature.
func (p *Predictor) Signature() Signature { return p.sig }

// Predict formats the inputs, runs the LM, and parses each completion.
// It returns one output map per generation.
func (p *Predictor) Predict(ctx context.Context, inputs map[string]string, n int) ([]map[string]string, error) {
	messages, err := p.adapter.Format(p.sig, inputs)
	if err != nil {
		return nil, err
	}

	resp, err := p.lm.Generate(ctx, lm.Request{Messages: messages, N: n})
	if err != nil {
		return nil, err
	}

	results := make([]map[string]string, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		outputs, err := p.adapter.Parse(p.sig, choice.Message.Content)
		if err != nil {
			return nil, fmt.Errorf("parsing generation %d: %w", choice.Index, err)
		}
		results = append(results, outputs)
	}

	log.Debug(log.CatAdapter, "prediction complete",
		"outputs", len(results), "fields", p.sig.OutputNames())
	return results, nil
}
