package pipeline

import (
	"math"
	"testing"
)

func TestGroundingVerifier_SentinelAndEmpty(t *testing.T) {
	v := NewGroundingVerifier()
	docs := []RetrievedDocument{{Text: "annual leave is twenty days", Score: 0.8}}

	for _, answer := range []string{"", "INSUFFICIENT_EVIDENCE", "  INSUFFICIENT_EVIDENCE\n"} {
		result := v.Verify(answer, docs, 0.8, DefaultThresholds())
		if result.Outcome != OutcomeRefuse {
			t.Errorf("answer %q: outcome = %v, want REFUSE", answer, result.Outcome)
		}
		if result.RefusalReason != "Model reported insufficient evidence" {
			t.Errorf("answer %q: unexpected reason: %s", answer, result.RefusalReason)
		}
		if result.ConfidenceScore != 0 {
			t.Errorf("answer %q: confidence = %f, want 0", answer, result.ConfidenceScore)
		}
	}
}

func TestGroundingVerifier_NoDocumentText(t *testing.T) {
	v := NewGroundingVerifier()
	docs := []RetrievedDocument{{Text: "", Score: 0.9}, {Text: "   ", Score: 0.8}}

	result := v.Verify("some answer", docs, 0.85, DefaultThresholds())
	if result.Outcome != OutcomeRefuse {
		t.Fatalf("outcome = %v, want REFUSE", result.Outcome)
	}
	if result.RefusalReason != "No document text available for grounding" {
		t.Errorf("unexpected reason: %s", result.RefusalReason)
	}
}

func TestGroundingVerifier_AnswerTooLong(t *testing.T) {
	v := NewGroundingVerifier()
	docs := []RetrievedDocument{{Text: "hi", Score: 0.9}}

	// 11 characters against 2 characters of evidence, factor 2.
	result := v.Verify("hi hi hi hi", docs, 0.9, DefaultThresholds())
	if result.Outcome != OutcomeRefuse {
		t.Fatalf("outcome = %v, want REFUSE", result.Outcome)
	}
	if result.RefusalReason != "Answer length exceeds supporting evidence" {
		t.Errorf("unexpected reason: %s", result.RefusalReason)
	}
	// Full token overlap is still reported on the length refusal.
	if math.Abs(result.ConfidenceScore-1.0) > 1e-9 {
		t.Errorf("confidence = %f, want 1.0", result.ConfidenceScore)
	}
}

func TestGroundingVerifier_AnswerAtLengthLimit(t *testing.T) {
	v := NewGroundingVerifier()
	docs := []RetrievedDocument{{Text: "hi ho", Score: 0.9}}

	// Exactly 2x the evidence length is still allowed.
	result := v.Verify("hi ho hi h", docs, 1.0, DefaultThresholds())
	if result.RefusalReason == "Answer length exceeds supporting evidence" {
		t.Fatal("answer at exactly the length limit must not be refused for length")
	}
	if result.Outcome != OutcomeAnswer {
		t.Errorf("outcome = %v, want ANSWER (reason: %s)", result.Outcome, result.RefusalReason)
	}
}

func TestGroundingVerifier_LowConfidence(t *testing.T) {
	v := NewGroundingVerifier()
	docs := []RetrievedDocument{{Text: "alpha beta policy days", Score: 0.8}}

	// Overlap 2/4 = 0.5; confidence = 0.6*0.8 + 0.4*0.5 = 0.68 < 0.7.
	result := v.Verify("alpha beta gamma delta", docs, 0.8, DefaultThresholds())
	if result.Outcome != OutcomeRefuse {
		t.Fatalf("outcome = %v, want REFUSE", result.Outcome)
	}
	if result.RefusalReason != "Grounding confidence below threshold" {
		t.Errorf("unexpected reason: %s", result.RefusalReason)
	}
	if math.Abs(result.ConfidenceScore-0.68) > 1e-9 {
		t.Errorf("confidence = %f, want 0.68", result.ConfidenceScore)
	}
}

func TestGroundingVerifier_Accepts(t *testing.T) {
	v := NewGroundingVerifier()
	docs := []RetrievedDocument{{Text: "alpha beta policy days", Score: 0.9}}

	// Overlap 2/2 = 1.0; confidence = 0.6*0.9 + 0.4*1.0 = 0.94.
	result := v.Verify("alpha beta", docs, 0.9, DefaultThresholds())
	if result.Outcome != OutcomeAnswer {
		t.Fatalf("outcome = %v, want ANSWER (reason: %s)", result.Outcome, result.RefusalReason)
	}
	if math.Abs(result.ConfidenceScore-0.94) > 1e-9 {
		t.Errorf("confidence = %f, want 0.94", result.ConfidenceScore)
	}
	if result.RefusalReason != "" {
		t.Errorf("unexpected reason on ANSWER: %s", result.RefusalReason)
	}
}

func TestGroundingVerifier_OverlapIsCaseInsensitive(t *testing.T) {
	v := NewGroundingVerifier()
	docs := []RetrievedDocument{{Text: "Alpha Beta policy days", Score: 0.9}}

	result := v.Verify("ALPHA beta", docs, 0.9, DefaultThresholds())
	if result.Outcome != OutcomeAnswer {
		t.Fatalf("outcome = %v, want ANSWER (reason: %s)", result.Outcome, result.RefusalReason)
	}
	if math.Abs(result.ConfidenceScore-0.94) > 1e-9 {
		t.Errorf("confidence = %f, want 0.94", result.ConfidenceScore)
	}
}
