package captioner

import "github.com/makkenzo/alttext-service-api/internal/domain/caption"

var prompts = map[caption.Variant]string{
	caption.VariantDefault: "Write concise alt text for this image in one sentence. " +
		"Describe the key subject and context. Do not start with \"Image of\" or \"Picture of\". " +
		"Return plain text only.",
	caption.VariantSEO: "Write SEO-friendly alt text for this image in one sentence of at most 125 characters. " +
		"Mention the main subject and any clearly relevant keywords naturally, without keyword stuffing. " +
		"Return plain text only.",
	caption.VariantLong: "Write a detailed description of this image in two to four sentences. " +
		"Cover the subject, setting, notable details, colours and any visible text. " +
		"Return plain text only.",
	caption.VariantAccessibility: "Write alt text for a screen reader user. " +
		"Describe what matters for understanding the image, including any visible text verbatim, " +
		"in one or two plain sentences. Avoid subjective judgements. Return plain text only.",
}

// Prompt returns the instruction for variant; unknown variants get the
// default prompt.
func Prompt(variant caption.Variant) string {
	if p, ok := prompts[variant]; ok {
		return p
	}
	return prompts[caption.VariantDefault]
}
