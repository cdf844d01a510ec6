// Package agent implements the LLM-backed dialogue manager: intent
// detection, prompt construction and API calls, with a deterministic
// degraded mode when no API key is configured or the upstream is failing.
package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnResult is the outcome of one conversational exchange.
type TurnResult struct {
	Response      string            `json:"response"`
	Intent        string            `json:"intent"`
	NeedsAnalysis bool              `json:"needs_analysis"`
	Emergency     bool              `json:"emergency"`
	Confidence    float64           `json:"confidence"`
	CollectedInfo map[string]string `json:"collected_info"`
}

// defaultModel is used when the configuration leaves the model unset.
const defaultModel = "gpt-4o-mini"

const systemPrompt = `Tu es un assistant médical IA expert et empathique.

TON RÔLE:
- Collecter les symptômes de manière conversationnelle et naturelle
- Poser des questions de clarification intelligentes
- Identifier les urgences médicales
- Préparer les données pour l'analyse prédictive

RÈGLES STRICTES:
1. NE JAMAIS donner de diagnostic définitif toi-même
2. TOUJOURS recommander une consultation médicale en cas de doute
3. IDENTIFIER les urgences (douleur thoracique, AVC, etc.) et orienter vers le 15/SAMU
4. Être empathique, rassurant mais professionnel
5. Poser des questions ciblées sur la durée, l'intensité, les facteurs
   déclenchants, les symptômes associés et les antécédents pertinents

FORMAT DE RÉPONSE:
- Conversationnel et humain, questions une par une
- Être concis (2-4 phrases maximum)

Réponds de manière naturelle et empathique.`

// commonSymptoms is the fixed list used to count symptom mentions when
// deciding whether enough information has been collected for analysis.
var commonSymptoms = []string{
	"fièvre", "toux", "douleur", "fatigue", "nausée", "vomissement",
	"diarrhée", "maux de tête", "vertige", "étourdissement",
	"essoufflement", "palpitation", "frisson", "sueur",
	"mal de gorge", "nez bouché", "éternuement", "courbature",
	"crampe", "gonflement", "rougeur", "démangeaison",
	"mal de ventre", "brûlure", "picotement", "engourdissement",
}

var analysisTriggers = []string{
	"analyser", "diagnostic", "évaluer", "prédire",
	"que pensez-vous", "quel est le problème", "c'est quoi",
	"qu'est-ce que j'ai", "aide-moi", "analyse mes symptômes",
}

var clarificationPrompts = []string{
	"Pouvez-vous me décrire plus précisément vos symptômes ? Par exemple, depuis quand les ressentez-vous ?",
	"Pour mieux vous aider, j'aurais besoin de savoir : quelle est l'intensité de vos symptômes sur une échelle de 1 à 10 ?",
	"Avez-vous d'autres symptômes associés que vous n'avez pas encore mentionnés ?",
	"Ces symptômes sont-ils constants ou intermittents ?",
	"Y a-t-il des facteurs qui aggravent ou soulagent vos symptômes ?",
	"Avez-vous de la fièvre ? Si oui, quelle température ?",
}

var (
	durationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`depuis \d+ jours?`),
		regexp.MustCompile(`\d+ heures?`),
		regexp.MustCompile(`depuis hier`),
		regexp.MustCompile(`ce matin`),
		regexp.MustCompile(`cette nuit`),
		regexp.MustCompile(`depuis \d+ semaines?`),
	}
	temperaturePattern = regexp.MustCompile(`(\d{2}(?:\.\d)?)[°\s]*(?:c|celsius)?`)
)

// Agent is the dialogue manager. With no API key it runs in degraded mode
// with predefined responses; with one, LLM calls go through a circuit
// breaker so a failing upstream degrades instead of stalling every turn.
type Agent struct {
	logger      *logrus.Logger
	client      *openai.Client
	model       string
	breaker     *gobreaker.CircuitBreaker
	history     HistoryStore
	promptIndex atomic.Int64
}

// Config parameterizes the agent.
type Config struct {
	APIKey  string
	Model   string
	History HistoryStore
}

// New creates the agent. A missing API key activates degraded mode.
func New(logger *logrus.Logger, cfg Config) *Agent {
	a := &Agent{
		logger:  logger,
		model:   cfg.Model,
		history: cfg.History,
	}
	if a.model == "" {
		a.model = defaultModel
	}

	if cfg.APIKey == "" {
		logger.Warn("No OpenAI API key configured, conversational agent running in degraded mode")
	} else {
		a.client = openai.NewClient(cfg.APIKey)
	}

	a.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "openai-chat",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return a
}

// HandleConversation runs one dialogue turn: builds the prompt from stored
// history, calls the model, persists both turns and analyzes the exchange
// for triage signals. Any upstream failure falls back to the degraded
// response; the turn itself never fails.
func (a *Agent) HandleConversation(ctx context.Context, userID, userMessage string) *TurnResult {
	if a.client == nil {
		return a.fallbackResponse(userMessage)
	}

	history, err := a.history.Get(ctx, userID)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to load conversation history")
	}

	reply, err := a.chat(ctx, history, userMessage)
	if err != nil {
		a.logger.WithError(err).Warn("LLM call failed, using degraded response")
		return a.fallbackResponse(userMessage)
	}

	if err := a.history.Append(ctx, userID,
		Message{Role: openai.ChatMessageRoleUser, Content: userMessage},
		Message{Role: openai.ChatMessageRoleAssistant, Content: reply},
	); err != nil {
		a.logger.WithError(err).Warn("Failed to persist conversation history")
	}

	result := a.analyzeResponse(reply, userMessage)
	result.Response = reply
	return result
}

// chat sends the system prompt, history and latest user message through the
// circuit breaker.
func (a *Agent) chat(ctx context.Context, history []Message, userMessage string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleSystem, Content: systemPrompt,
	})
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: userMessage,
	})

	reply, err := a.breaker.Execute(func() (interface{}, error) {
		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       a.model,
			Messages:    messages,
			Temperature: 0.7,
			MaxTokens:   500,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("empty completion response")
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		return "", err
	}
	return reply.(string), nil
}

// analyzeResponse extracts triage decision signals from one exchange.
func (a *Agent) analyzeResponse(aiResponse, userMessage string) *TurnResult {
	result := &TurnResult{
		Intent:        "conversation",
		Confidence:    0.5,
		CollectedInfo: map[string]string{},
	}

	lowerAI := strings.ToLower(aiResponse)
	for _, kw := range []string{"urgence", "samu", "appeler immédiatement", "urgences", "danger", "grave", "critique"} {
		if strings.Contains(lowerAI, kw) {
			result.Emergency = true
			result.Intent = "emergency"
			return result
		}
	}

	symptomCount := CountSymptoms(userMessage)
	aiWillAnalyze := false
	for _, phrase := range []string{
		"vais analyser", "procéder à l'analyse", "analyser vos symptômes",
		"faire une évaluation", "regarder vos symptômes",
	} {
		if strings.Contains(lowerAI, phrase) {
			aiWillAnalyze = true
			break
		}
	}

	lowerUser := strings.ToLower(userMessage)
	triggered := false
	for _, trigger := range analysisTriggers {
		if strings.Contains(lowerUser, trigger) {
			triggered = true
			break
		}
	}

	switch {
	case aiWillAnalyze:
		result.NeedsAnalysis = true
		result.Confidence = 0.9
		result.Intent = "ready_for_analysis"
	case symptomCount >= 3:
		result.NeedsAnalysis = true
		result.Confidence = min(0.9, 0.5+float64(symptomCount)*0.1)
		result.Intent = "symptom_analysis"
	case triggered:
		result.NeedsAnalysis = true
		result.Confidence = 0.7
		result.Intent = "diagnosis_request"
	}

	result.CollectedInfo = ExtractMedicalInfo(userMessage)
	return result
}

// fallbackResponse is the degraded-mode answer when no LLM is reachable.
func (a *Agent) fallbackResponse(userMessage string) *TurnResult {
	lower := strings.ToLower(userMessage)
	symptomCount := CountSymptoms(userMessage)

	for _, greeting := range []string{"bonjour", "salut", "hello", "hey", "bonsoir", "coucou"} {
		if strings.Contains(lower, greeting) {
			return &TurnResult{
				Response: "Bonjour ! Je suis votre assistant médical.\n\n" +
					"Comment puis-je vous aider aujourd'hui ? N'hésitez pas à me décrire vos symptômes.",
				Intent:        "greeting",
				Confidence:    0.3,
				CollectedInfo: map[string]string{},
			}
		}
	}

	if symptomCount >= 2 {
		return &TurnResult{
			Response: "Je comprends que vous ressentez plusieurs symptômes. " +
				"Pouvez-vous me préciser depuis combien de temps et quelle est l'intensité ?",
			Intent:        "symptom_collection",
			NeedsAnalysis: symptomCount >= 3,
			Confidence:    0.6,
			CollectedInfo: ExtractMedicalInfo(userMessage),
		}
	}

	return &TurnResult{
		Response: "Je suis là pour vous aider avec vos questions de santé.\n\n" +
			"Pouvez-vous me décrire en détail ce que vous ressentez ? " +
			"Plus vous êtes précis, mieux je pourrai vous aider.",
		Intent:        "clarification",
		Confidence:    0.3,
		CollectedInfo: map[string]string{},
	}
}

// GenerateSymptomPrompt returns a clarifying question, rotating through the
// fixed prompt list.
func (a *Agent) GenerateSymptomPrompt() string {
	n := a.promptIndex.Add(1) - 1
	return clarificationPrompts[int(n)%len(clarificationPrompts)]
}

// EnhanceDiagnosisResponse prefixes the diagnosis text with an empathic
// opener, via the LLM when available, otherwise with a fixed phrase.
func (a *Agent) EnhanceDiagnosisResponse(ctx context.Context, baseResponse string, symptoms []string) string {
	if a.client == nil {
		return "Je comprends que ces symptômes vous inquiètent. Voici mon analyse :\n\n" + baseResponse
	}

	prompt := fmt.Sprintf(`Améliore cette réponse de diagnostic médical pour la rendre plus empathique et claire, sans changer les informations médicales.

Réponse originale:
%s

Symptômes du patient: %s

Commence par UNE phrase empathique courte, garde toutes les informations médicales exactement comme elles sont, et n'ajoute pas de conclusion.`,
		baseResponse, strings.Join(symptoms, ", "))

	enhanced, err := a.chat(ctx, nil, prompt)
	if err != nil {
		a.logger.WithError(err).Warn("Diagnosis enhancement failed, returning base response")
		return baseResponse
	}
	return enhanced
}

// ClearHistory erases a user's conversation context.
func (a *Agent) ClearHistory(ctx context.Context, userID string) error {
	return a.history.Clear(ctx, userID)
}

// Active reports whether the LLM backend is configured.
func (a *Agent) Active() bool { return a.client != nil }

// CountSymptoms counts mentions from the fixed common-symptom list.
func CountSymptoms(text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, symptom := range commonSymptoms {
		if strings.Contains(lower, symptom) {
			count++
		}
	}
	return count
}

// ExtractMedicalInfo pulls structured hints (duration, severity,
// temperature) out of free text.
func ExtractMedicalInfo(text string) map[string]string {
	info := map[string]string{}
	lower := strings.ToLower(text)

	for _, pattern := range durationPatterns {
		if match := pattern.FindString(lower); match != "" {
			info["duration"] = match
			break
		}
	}

	severity := "medium"
	for _, word := range []string{"intense", "fort", "sévère", "terrible", "insupportable"} {
		if strings.Contains(lower, word) {
			severity = "high"
			break
		}
	}
	if severity == "medium" {
		for _, word := range []string{"léger", "faible", "peu", "modéré"} {
			if strings.Contains(lower, word) {
				severity = "low"
				break
			}
		}
	}
	info["severity"] = severity

	if match := temperaturePattern.FindStringSubmatch(lower); match != nil {
		info["temperature"] = match[1]
	}

	return info
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
