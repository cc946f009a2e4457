package verifier

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/fyrsmithlabs/figclass/internal/decision"
)

// verdictResponse is the JSON shape requested from the model. Confidence
// is declared as a number but parsed leniently.
type verdictResponse struct {
	Kind         string                `json:"kind" jsonschema:"description=One widget kind from the vocabulary"`
	Confidence   json.RawMessage       `json:"confidence" jsonschema:"type=number,minimum=0,maximum=100,description=Confidence from 0 to 100"`
	Rationale    string                `json:"rationale,omitempty" jsonschema:"description=One sentence naming the visual evidence"`
	Features     []string              `json:"features,omitempty" jsonschema:"description=Short visual tags such as rounded-fill or icon-left"`
	Alternatives []alternativeResponse `json:"alternatives,omitempty" jsonschema:"maxItems=3"`
}

type alternativeResponse struct {
	Kind       string          `json:"kind"`
	Confidence json.RawMessage `json:"confidence" jsonschema:"type=number"`
}

var (
	schemaOnce sync.Once
	schemaJSON string
)

// responseSchema returns the JSON schema of verdictResponse.
func responseSchema() string {
	schemaOnce.Do(func() {
		reflector := jsonschema.Reflector{
			AllowAdditionalProperties: false,
			DoNotReference:            true,
		}
		data, err := json.Marshal(reflector.Reflect(&verdictResponse{}))
		if err != nil {
			schemaJSON = "{}"
			return
		}
		schemaJSON = string(data)
	})
	return schemaJSON
}

const systemPromptHeader = `You classify one element of a web page design into a page-builder widget.

You are given a rendering of the element, its layer metadata, the candidate
kinds proposed by rule-based heuristics, and the closed list of kinds you may
answer with. Judge from the rendering first; the candidates can be wrong.
Answer with a kind from the vocabulary only.

Respond ONLY with a JSON object matching this schema, no additional text:
`

func systemPrompt() string {
	return systemPromptHeader + responseSchema()
}

// userPrompt describes the node and candidates in plain text.
func userPrompt(req decision.VerifyRequest) (string, error) {
	if len(req.Image.Data) == 0 {
		return "", fmt.Errorf("%w: node %s has no image", ErrMalformedRequest, req.Node.ID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Layer: %q (type %s, %.0fx%.0f, %d children)\n",
		req.Node.Name, req.Node.Type, req.Node.Width, req.Node.Height, req.Node.ChildCount)

	if len(req.Candidates) == 0 {
		b.WriteString("Heuristic candidates: none\n")
	} else {
		b.WriteString("Heuristic candidates:\n")
		for _, c := range req.Candidates {
			fmt.Fprintf(&b, "- %s (%.2f)", c.Kind, c.Score)
			if len(c.Reasons) > 0 {
				fmt.Fprintf(&b, ": %s", strings.Join(c.Reasons, "; "))
			}
			b.WriteByte('\n')
		}
	}

	kinds := make([]string, len(req.Vocabulary))
	for i, k := range req.Vocabulary {
		kinds[i] = string(k)
	}
	fmt.Fprintf(&b, "Vocabulary: %s\n", strings.Join(kinds, ", "))
	return b.String(), nil
}

func mediaType(img decision.Image) string {
	if img.MIMEType == "" {
		return "image/png"
	}
	return img.MIMEType
}
