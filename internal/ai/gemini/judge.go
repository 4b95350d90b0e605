package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/openmixer/mixer/internal/ai"
	"github.com/openmixer/mixer/internal/metrics"
	"github.com/openmixer/mixer/internal/profile"
	"github.com/openmixer/mixer/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, prompt string) (string, error)
	GenerateJSON(ctx context.Context, system, prompt string, schema *genai.Schema) (string, error)
}

//go:embed judge_prompt.md
var judgePromptTemplate string

//go:embed validate_prompt.md
var validatePromptTemplate string

const (
	judgeSystem     = "You are a networking matchmaker. Score and explain."
	validatorSystem = "You are a strict reviewer of networking matches."

	defaultMaxLogLength = 200
)

// scorePattern matches standalone score-looking tokens in free text. The
// parser walks all of them and keeps the first one inside [0, 1].
var scorePattern = regexp.MustCompile(`\b[01](?:\.[0-9]+)?\b`)

// fallbackScore draws the stand-in judgment used when no score token can be
// parsed. Injectable for tests.
var fallbackScore = func() float64 {
	return 0.4 + rand.Float64()*0.4
}

var verdictSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"is_good": {Type: genai.TypeBoolean, Description: "Is the match list relevant and well-justified?"},
		"reason":  {Type: genai.TypeString, Description: "Reason for the evaluation."},
	},
	Required: []string{"is_good", "reason"},
}

// Judge adapts the Gemini generator to the judgment oracle contract.
type Judge struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewJudge(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Judge {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Judge{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// JudgePair scores one user/candidate pair. A response the score cannot be
// parsed from degrades to a randomized score in [0.4, 0.8] instead of
// failing; transport errors propagate as oracle failures.
func (j *Judge) JudgePair(ctx context.Context, req ai.PairRequest) (*ai.PairAssessment, error) {
	prompt := buildJudgePrompt(req)

	j.logger.Debug("judge pair request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, j.maxLogLen)),
	)

	raw, err := j.generator.GenerateContent(ctx, judgeSystem, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: judge pair: %v", ai.ErrOracleUnavailable, err)
	}

	j.logger.Debug("judge pair response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, j.maxLogLen)),
	)

	assessment := &ai.PairAssessment{Justification: raw, Raw: raw}

	for _, token := range scorePattern.FindAllString(raw, -1) {
		score, parseErr := strconv.ParseFloat(token, 64)
		if parseErr != nil || score < 0 || score > 1 {
			continue
		}
		assessment.Score = score
		return assessment, nil
	}

	assessment.Score = fallbackScore()
	assessment.Fallback = true
	metrics.JudgeFallbacks.Inc()

	j.logger.Warn("no parseable score in judge response, using randomized fallback",
		zap.Float64("fallback_score", assessment.Score),
		zap.String("response_preview", utils.TruncateForLog(raw, j.maxLogLen)),
	)

	return assessment, nil
}

// ValidateShortlist asks the model whether a proposed shortlist is
// acceptable. The structured response is mandatory; an undecodable reply is
// a schema violation, not a fallback.
func (j *Judge) ValidateShortlist(ctx context.Context, user profile.Profile, shortlist []ai.ShortlistEntry) (*ai.ShortlistVerdict, error) {
	shortlistJSON, err := json.MarshalIndent(shortlist, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal shortlist: %w", err)
	}

	prompt := buildValidatePrompt(user, string(shortlistJSON))

	raw, err := j.generator.GenerateJSON(ctx, validatorSystem, prompt, verdictSchema)
	if err != nil {
		return nil, fmt.Errorf("%w: validate shortlist: %v", ai.ErrOracleUnavailable, err)
	}

	j.logger.Debug("validate shortlist response",
		zap.String("response_preview", utils.TruncateForLog(raw, j.maxLogLen)),
	)

	verdict, err := parseVerdict(raw)
	if err != nil {
		return nil, err
	}

	return verdict, nil
}

func buildJudgePrompt(req ai.PairRequest) string {
	prompt := judgePromptTemplate
	replacements := map[string]string{
		"{{USER_GIVE}}":    req.UserGive,
		"{{USER_ASK}}":     req.UserAsk,
		"{{OTHER_GIVE}}":   req.OtherGive,
		"{{OTHER_ASK}}":    req.OtherAsk,
		"{{SIM_ASK_GIVE}}": fmt.Sprintf("%.2f", req.SimAskGive),
		"{{SIM_GIVE_ASK}}": fmt.Sprintf("%.2f", req.SimGiveAsk),
	}
	for placeholder, value := range replacements {
		prompt = strings.ReplaceAll(prompt, placeholder, value)
	}
	return prompt
}

func buildValidatePrompt(user profile.Profile, shortlistJSON string) string {
	prompt := validatePromptTemplate
	prompt = strings.ReplaceAll(prompt, "{{USER_NAME}}", user.Name)
	prompt = strings.ReplaceAll(prompt, "{{USER_ASK}}", user.Ask)
	prompt = strings.ReplaceAll(prompt, "{{USER_GIVE}}", user.Give)
	prompt = strings.ReplaceAll(prompt, "{{SHORTLIST_JSON}}", shortlistJSON)
	return prompt
}

func parseVerdict(raw string) (*ai.ShortlistVerdict, error) {
	cleaned := extractJSON(raw)

	var data struct {
		IsGood *bool  `json:"is_good"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("%w: parse verdict: %v", ai.ErrSchemaViolation, err)
	}
	if data.IsGood == nil {
		return nil, fmt.Errorf("%w: verdict is missing is_good", ai.ErrSchemaViolation)
	}

	return &ai.ShortlistVerdict{
		Good:   *data.IsGood,
		Reason: strings.TrimSpace(data.Reason),
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
