package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
)

const (
	defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel    = "gemini-2.0-flash"
	requestTimeout  = 60 * time.Second
)

// Gemini calls the Google generative language REST API. Matching failures
// degrade to the deterministic fallback; rule generation failures are
// returned to the caller.
type Gemini struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
	fallback *Fallback
}

// GeminiOption configures the client.
type GeminiOption func(*Gemini)

// WithModel overrides the model name.
func WithModel(model string) GeminiOption {
	return func(g *Gemini) {
		if model != "" {
			g.model = model
		}
	}
}

// WithEndpoint overrides the API base URL. Used by tests.
func WithEndpoint(endpoint string) GeminiOption {
	return func(g *Gemini) { g.endpoint = strings.TrimRight(endpoint, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) GeminiOption {
	return func(g *Gemini) { g.client = c }
}

// NewGemini creates a Gemini-backed oracle.
func NewGemini(apiKey string, logger *slog.Logger, opts ...GeminiOption) *Gemini {
	g := &Gemini{
		apiKey:   apiKey,
		model:    defaultModel,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: requestTimeout},
		logger:   logger,
		fallback: NewFallback(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MatchFields asks the model for one mapping per target field. On any
// failure (transport, unparsable response) it answers with the similarity
// fallback instead of an error.
func (g *Gemini) MatchFields(ctx context.Context, source []schema.SourceField, target []schema.TargetField) ([]MatchResult, error) {
	srcJSON, _ := json.MarshalIndent(source, "", "  ")
	tgtJSON, _ := json.MarshalIndent(target, "", "  ")

	prompt := fmt.Sprintf(`你是一个数据字段映射专家。请分析以下源字段和目标字段，为每个目标字段推荐最匹配的源字段。

源字段列表：
%s

目标字段列表：
%s

请返回 JSON 格式的映射结果，格式如下：
{
  "mappings": [
    {
      "targetFieldId": "目标字段ID",
      "sourceFieldId": "匹配的源字段ID或null",
      "matchConfidence": 0-100的匹配度
    }
  ]
}

仅返回 JSON，不要包含其他内容。`, srcJSON, tgtJSON)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		g.logger.Warn("field matching call failed, using similarity fallback", "error", err)
		return g.fallback.MatchFields(ctx, source, target)
	}

	var parsed struct {
		Mappings []MatchResult `json:"mappings"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &parsed); err != nil {
		g.logger.Warn("field matching response unparsable, using similarity fallback", "error", err)
		return g.fallback.MatchFields(ctx, source, target)
	}
	return parsed.Mappings, nil
}

// GenerateRule asks the model for a rule body in the Starlark subset used by
// internal/rule. Failures propagate; the caller keeps its rule description.
func (g *Gemini) GenerateRule(ctx context.Context, description string, source []schema.SourceField) (string, error) {
	var fields strings.Builder
	for _, f := range source {
		fmt.Fprintf(&fields, "    # row['%s'] (示例值: '%s')\n", f.Name, f.Sample)
	}

	prompt := fmt.Sprintf(`你是一个数据处理专家。请根据用户需求生成 Starlark 数据转换函数体。

可用的源字段及示例值：
%s
用户需求: "%s"

要求：
1. 只返回函数体代码，不要 def 声明
2. 参数 row 是一个字典，包含源数据的一行，通过 row['字段名'] 获取值（字符串）
3. 代码必须用 return 语句返回处理后的值
4. 语法为 Starlark（Python 子集）：不能使用 import、while、递归和任何 I/O
5. 数值运算请先用内置函数 num(x) 把单元格文本转成数字
6. 处理可能缺失的字段时使用 row.get('字段名', '')
7. 只返回代码，不要 markdown 代码块标记

示例输出（仅函数体）：
return num(row.get('金额', 0)) * 1.13`, fields.String(), description)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("rule generation failed: %w", err)
	}
	return stripCodeFence(text), nil
}

// SummarizeFile produces a structured digest; failures degrade to the
// fallback placeholder.
func (g *Gemini) SummarizeFile(ctx context.Context, fileName string, sample []map[string]any) (Summary, error) {
	sampleJSON, _ := json.MarshalIndent(sample, "", "  ")

	prompt := fmt.Sprintf(`分析以下 Excel 文件数据，生成结构化摘要。

文件名：%s

数据样本（前 5 行）：
%s

请返回 JSON 格式：
{
  "provider": "推断的供应商/数据来源",
  "period": "推断的数据时间范围",
  "currency": "货币类型",
  "anomalies": "发现的异常或需要注意的点"
}

仅返回 JSON。`, fileName, sampleJSON)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		g.logger.Warn("file summary call failed", "file", fileName, "error", err)
		return g.fallback.SummarizeFile(ctx, fileName, sample)
	}

	var s Summary
	if err := json.Unmarshal([]byte(extractJSON(text)), &s); err != nil {
		return g.fallback.SummarizeFile(ctx, fileName, sample)
	}
	return s, nil
}

// ParseTemplate extracts target field definitions from a template file.
// Failures degrade to one Text field per header.
func (g *Gemini) ParseTemplate(ctx context.Context, fileName string, headers []string, sample []map[string]any) (ParsedTemplate, error) {
	headersJSON, _ := json.MarshalIndent(headers, "", "  ")
	sampleJSON, _ := json.MarshalIndent(sample, "", "  ")

	prompt := fmt.Sprintf(`你是一个数据分析专家。请分析以下 Excel 模板文件的表头和样本数据，提取出目标字段定义。

文件名：%s

表头列表：
%s

样本数据（前3行）：
%s

请分析每个表头字段，推断其：
1. 字段名称（使用中文）
2. 数据类型（Text/Number/Date/Currency 四选一）
3. 字段描述（简短说明该字段的用途）
4. 合适的图标（从以下选项中选择：tag, numbers, calendar_today, payments, text_fields, person, location_on, receipt_long, scale, local_shipping）

请返回 JSON 格式：
{
  "fields": [
    {
      "name": "字段名称",
      "type": "数据类型",
      "description": "字段描述",
      "icon": "图标名称"
    }
  ],
  "templateName": "推荐的模板名称（基于文件名或内容推断）"
}

仅返回 JSON，不要包含其他内容。`, fileName, headersJSON, sampleJSON)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		g.logger.Warn("template parsing call failed", "file", fileName, "error", err)
		return g.fallback.ParseTemplate(ctx, fileName, headers, sample)
	}

	var parsed struct {
		Fields []struct {
			Name        string `json:"name"`
			Type        string `json:"type"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"fields"`
		TemplateName string `json:"templateName"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &parsed); err != nil {
		return g.fallback.ParseTemplate(ctx, fileName, headers, sample)
	}

	now := time.Now().UnixMilli()
	out := ParsedTemplate{TemplateName: parsed.TemplateName}
	if out.TemplateName == "" {
		out.TemplateName = trimExt(fileName)
	}
	for i, f := range parsed.Fields {
		tf := schema.TargetField{
			ID:          fmt.Sprintf("target-%d-%d", now, i),
			Name:        f.Name,
			Type:        normalizeTargetType(f.Type),
			Description: f.Description,
			Icon:        f.Icon,
		}
		if tf.Icon == "" {
			tf.Icon = "text_fields"
		}
		out.Fields = append(out.Fields, tf)
	}
	return out, nil
}

// --- transport ---

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// generate performs one generateContent call and returns the first text part.
func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("model API key not configured")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.endpoint, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("model response unparsable: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("model error: %s", parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("model returned no candidates")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// extractJSON returns the first top-level {...} span of the text so that
// chatter around the JSON payload does not break decoding.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}

// stripCodeFence removes markdown code fences the model sometimes wraps
// generated code in.
func stripCodeFence(code string) string {
	code = strings.TrimSpace(code)
	if strings.HasPrefix(code, "```") {
		if i := strings.Index(code, "\n"); i >= 0 {
			code = code[i+1:]
		} else {
			code = strings.TrimPrefix(code, "```")
		}
	}
	code = strings.TrimSuffix(strings.TrimSpace(code), "```")
	return strings.TrimSpace(code)
}

// normalizeTargetType maps loose model output onto the target type enum.
func normalizeTargetType(s string) schema.TargetType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "number", "integer", "float":
		return schema.TargetNumber
	case "date":
		return schema.TargetDate
	case "currency":
		return schema.TargetCurrency
	default:
		return schema.TargetText
	}
}
