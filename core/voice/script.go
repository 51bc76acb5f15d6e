package voice

import (
	"strings"

	"github.com/invopop/jsonschema"
)

// Assistant is an inline script the service runs for the call instead of a
// named remote workflow. Prompt templates reference StartConfig.Variables
// with {{name}} placeholders; substitution happens service-side.
type Assistant struct {
	Name           string             `json:"name"`
	FirstMessage   string             `json:"firstMessage"`
	SystemPrompt   string             `json:"systemPrompt"`
	Model          string             `json:"model"`
	Voice          string             `json:"voice"`
	AnalysisSchema *jsonschema.Schema `json:"analysisSchema,omitempty"`
}

// callAnalysis is the structured summary the service is asked to attach to
// an evaluated call. Its schema is sent with the interviewer script so the
// analysis arrives in a shape downstream consumers can rely on.
type callAnalysis struct {
	Summary             string   `json:"summary"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areasForImprovement"`
}

const interviewerSystemPrompt = `You are a professional job interviewer conducting a real-time voice interview with a candidate. Your goal is to assess their qualifications, motivation, and fit for the role.

Interview guidelines:
Follow the structured question flow:
{{questions}}

Engage naturally and react appropriately:
Listen actively to responses and acknowledge them before moving forward.
Ask brief follow-up questions if a response is vague or requires more detail.
Keep the conversation flowing smoothly while maintaining control.

Be professional, yet warm and welcoming. Use official yet friendly language.
Keep responses concise and to the point, like in a real voice conversation.
This is a voice conversation, so keep your responses short. Do not ramble for too long.`

// Interviewer returns the fixed interviewer script parameterized with the
// prepared questions, formatted as a newline-delimited block.
func Interviewer(questions []string) StartConfig {
	return StartConfig{
		Assistant: &Assistant{
			Name:           "Interviewer",
			FirstMessage:   "Hello! Thank you for taking the time to speak with me today. I'm excited to learn more about you and your experience.",
			SystemPrompt:   interviewerSystemPrompt,
			Model:          "gpt-4",
			Voice:          "sarah",
			AnalysisSchema: analysisSchema(),
		},
		Variables: map[string]string{
			"questions": FormatQuestions(questions),
		},
	}
}

// FormatQuestions joins prepared questions into the newline-delimited list
// the interviewer prompt expects.
func FormatQuestions(questions []string) string {
	formatted := make([]string, 0, len(questions))
	for _, question := range questions {
		formatted = append(formatted, "- "+question)
	}
	return strings.Join(formatted, "\n")
}

func analysisSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}
	return reflector.Reflect(&callAnalysis{})
}
