package pipeline

import "strings"

// Verifier refusal reasons.
const (
	reasonModelInsufficient = "Model reported insufficient evidence"
	reasonNoDocText         = "No document text available for grounding"
	reasonAnswerTooLong     = "Answer length exceeds supporting evidence"
	reasonLowConfidence     = "Grounding confidence below threshold"
)

// GroundingVerifier scores a generated answer against the evidence set and
// applies the final acceptance threshold.
type GroundingVerifier struct{}

func NewGroundingVerifier() *GroundingVerifier {
	return &GroundingVerifier{}
}

// Verify applies the grounding rules in order; the first matching rule wins.
//
//  1. Empty answer or the sentinel → refuse, confidence 0.
//  2. No document text to ground against → refuse, confidence 0.
//  3. Answer more than MaxAnswerFactor × the evidence length → refuse with
//     the overlap score (guards against fabrication beyond the excerpts).
//  4. Blended confidence below the threshold → refuse.
//  5. Otherwise → answer.
func (v *GroundingVerifier) Verify(answerText string, docs []RetrievedDocument, evidenceScore float64, th Thresholds) VerificationResult {
	if answerText == "" || strings.TrimSpace(answerText) == InsufficientEvidenceSentinel {
		return VerificationResult{
			Outcome:       OutcomeRefuse,
			RefusalReason: reasonModelInsufficient,
		}
	}

	docTexts := make([]string, len(docs))
	for i, doc := range docs {
		docTexts[i] = doc.Text
	}
	docText := strings.ToLower(strings.Join(docTexts, " "))
	docTokens := tokenSet(docText)

	if len(docTokens) == 0 {
		return VerificationResult{
			Outcome:       OutcomeRefuse,
			RefusalReason: reasonNoDocText,
		}
	}

	answerTokens := tokenSet(strings.ToLower(answerText))
	overlap := 0
	for token := range answerTokens {
		if _, ok := docTokens[token]; ok {
			overlap++
		}
	}
	overlapScore := float64(overlap) / float64(max(len(answerTokens), 1))

	if len(answerText) > th.MaxAnswerFactor*len(docText) {
		return VerificationResult{
			Outcome:         OutcomeRefuse,
			ConfidenceScore: overlapScore,
			RefusalReason:   reasonAnswerTooLong,
		}
	}

	confidence := th.EvidenceWeight*evidenceScore + th.OverlapWeight*overlapScore

	if confidence < th.ConfidenceThreshold {
		return VerificationResult{
			Outcome:         OutcomeRefuse,
			ConfidenceScore: confidence,
			RefusalReason:   reasonLowConfidence,
		}
	}

	return VerificationResult{
		Outcome:         OutcomeAnswer,
		ConfidenceScore: confidence,
	}
}

// tokenSet splits on whitespace into a set of tokens.
func tokenSet(text string) map[string]struct{} {
	fields := strings.Fields(text)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
