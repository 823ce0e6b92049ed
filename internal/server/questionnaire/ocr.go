package questionnaire

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/lexbridge/internal/netx"
)

// OCRLine is one recognized line.
type OCRLine struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// OCRResult is the response of the OCR service.
type OCRResult struct {
	Success    bool      `json:"success"`
	Results    []OCRLine `json:"results"`
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Error      string    `json:"error,omitempty"`
}

// Recognizer extracts text from an image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (*OCRResult, error)
}

// OCRClient talks to a PaddleOCR-style HTTP service.
type OCRClient struct {
	url    string
	client *http.Client
}

func NewOCRClient(baseURL string, client *http.Client) *OCRClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &OCRClient{url: strings.TrimRight(baseURL, "/") + "/ocr", client: client}
}

type ocrRequest struct {
	ImageBase64 string `json:"image_base64"`
	Language    string `json:"language"`
}

func (c *OCRClient) Recognize(ctx context.Context, image []byte) (*OCRResult, error) {
	in := ocrRequest{ImageBase64: base64.StdEncoding.EncodeToString(image), Language: "ch"}
	var out OCRResult
	if err := netx.PostJSON(ctx, c.client, c.url, in, &out); err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("ocr: %s", out.Error)
	}
	return &out, nil
}

// Document kinds detected from OCR text.
const (
	KindIDCard              = "id_card"
	KindDriverLicense       = "driver_license"
	KindVehicleRegistration = "vehicle_registration"
	KindInsurancePolicy     = "insurance_policy"
	KindAccidentReport      = "accident_report"
	KindGeneral             = "general"
)

var kindKeywords = []struct {
	kind     string
	keywords []string
}{
	{KindIDCard, []string{"身份证", "公民身份号码", "identity card"}},
	{KindDriverLicense, []string{"驾驶证", "准驾车型", "driver license", "driving licence"}},
	{KindVehicleRegistration, []string{"行驶证", "车辆识别代号", "vehicle registration"}},
	{KindInsurancePolicy, []string{"保险单", "保险公司", "保险期间", "投保人", "insurance policy"}},
	{KindAccidentReport, []string{"事故认定书", "交通事故", "责任认定", "accident report"}},
}

// DetectKind guesses what kind of document the text was read from.
func DetectKind(text string) string {
	lower := strings.ToLower(text)
	for _, k := range kindKeywords {
		for _, kw := range k.keywords {
			if strings.Contains(lower, kw) {
				return k.kind
			}
		}
	}
	return KindGeneral
}

var fieldPatterns = []struct {
	field    string
	patterns []*regexp.Regexp
}{
	{"id_number", []*regexp.Regexp{
		regexp.MustCompile(`公民身份号码[：:]?\s*(\d{17}[\dXx])`),
		regexp.MustCompile(`\b(\d{17}[\dXx])\b`),
	}},
	{"name", []*regexp.Regexp{
		regexp.MustCompile(`姓\s*名[：:]?\s*([^\s,，]+)`),
		regexp.MustCompile(`(?i)name[：:]\s*([^\n,]+)`),
	}},
	{"plate_number", []*regexp.Regexp{
		regexp.MustCompile(`(?:车牌号|号牌号码)[：:]\s*([^\s,，]+)`),
		regexp.MustCompile(`([京津沪渝冀豫云辽黑湘皖鲁新苏浙赣鄂桂甘晋蒙陕吉闽贵粤青藏川宁琼][A-Z][A-Z0-9]{5,6})`),
	}},
	{"phone", []*regexp.Regexp{
		regexp.MustCompile(`(?:电话|联系方式)[：:]\s*(\d{11})`),
		regexp.MustCompile(`\b(1\d{2}[-\s]?\d{4}[-\s]?\d{4})\b`),
	}},
	{"date", []*regexp.Regexp{
		regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`),
		regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`),
		regexp.MustCompile(`(\d{4})/(\d{2})/(\d{2})`),
	}},
	{"policy_number", []*regexp.Regexp{
		regexp.MustCompile(`保(?:险)?单号[：:]\s*([A-Za-z0-9\-]+)`),
	}},
	{"responsibility", []*regexp.Regexp{
		regexp.MustCompile(`(全部责任|主要责任|同等责任|次要责任|无责任)`),
	}},
}

// ParsedText is the structured view of OCR text.
type ParsedText struct {
	Kind   string            `json:"document_kind"`
	Fields map[string]string `json:"fields"`
}

// ParseText extracts typed fields from OCR text.
func ParseText(text string) ParsedText {
	out := ParsedText{Kind: DetectKind(text), Fields: map[string]string{}}
	for _, fp := range fieldPatterns {
		for _, re := range fp.patterns {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			out.Fields[fp.field] = normalizeField(fp.field, m[1:])
			break
		}
	}
	return out
}

func normalizeField(field string, groups []string) string {
	switch field {
	case "date":
		if len(groups) == 3 {
			return groups[0] + "-" + pad2(groups[1]) + "-" + pad2(groups[2])
		}
	case "phone":
		return strings.NewReplacer("-", "", " ", "").Replace(groups[0])
	case "id_number":
		return strings.ToUpper(groups[0])
	}
	return strings.TrimSpace(groups[0])
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
