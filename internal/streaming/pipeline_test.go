package streaming

import (
	"testing"
	"time"

	"github.com/bluestarburst/cf-ai-local-tools/internal/models"
)

func TestPipelineDeliversInOrder(t *testing.T) {
	p := NewPipeline()
	sender := p.Sender()

	go func() {
		for i := 1; i <= 3; i++ {
			sender.Send(models.ExecutionStep{StepNumber: i, Type: models.StepAction})
		}
		sender.Release()
	}()

	var got []int
	for step := range p.Steps() {
		got = append(got, step.StepNumber)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("unexpected step order: %v", got)
	}
}

func TestPipelineClosesOnlyAfterAllClonesReleased(t *testing.T) {
	p := NewPipeline()
	parent := p.Sender()
	nested := parent.Clone()

	parent.Send(models.ExecutionStep{StepNumber: 1})
	parent.Release()

	select {
	case _, ok := <-p.Steps():
		if !ok {
			t.Fatal("channel closed before nested sender released")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for parent step")
	}

	nested.Send(models.ExecutionStep{StepNumber: 2, AgentID: "nested-agent"})
	nested.Release()

	seen := map[int]bool{}
	for step := range p.Steps() {
		seen[step.StepNumber] = true
	}
	if !seen[2] {
		t.Fatalf("expected nested step 2 to be delivered, got %v", seen)
	}
}

func TestSendAfterCloseIsDropped(t *testing.T) {
	p := NewPipeline()
	sender := p.Sender()
	sender.Release()

	// Drain to force the close to take effect.
	for range p.Steps() {
	}

	// Send after release must not panic or block.
	sender.Send(models.ExecutionStep{StepNumber: 99})
}
