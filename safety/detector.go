package safety

import "strings"

// Default emergency keyword sets, partitioned by language. Matching is a
// case-insensitive substring scan, so entries are stems where the word
// inflects ("stalk" covers stalked, stalker, stalking). The language
// partitions only exist so the sets stay reviewable by the people who
// maintain each language.
var defaultKeywords = map[string][]string{
	"english": {
		"help", "unsafe", "in danger", "stalk", "rape", "assault", "violence",
		"domestic", "abuse", "harassment", "sos", "panic", "kidnap", "threat", "blackmail",
		"emergency", "attacked", "hurt",
	},
	"swahili": {
		"msaada", "hatari", "niko hatarini", "ninahitaji msaada", "ubakaji", "unanyanyaswa",
		"kudhulumiwa", "kupigwa", "unyanyasaji", "tishio", "hatari ya maisha", "misheni",
	},
	"sheng": {
		"niko kwa shida", "nisaidie", "danger", "mbaya", "amekam", "ananishow", "ananiforce",
		"niko tight", "wamenishika", "shida kubwa",
	},
}

type Detector struct {
	keywords  map[string][]string
	responses map[string]string
}

// Detect reports whether text contains any configured emergency keyword in
// any language. Empty input is never an emergency.
func (d *Detector) Detect(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if len(t) == 0 {
		return false
	}

	for _, langKeywords := range d.keywords {
		for _, kw := range langKeywords {
			if strings.Contains(t, kw) {
				return true
			}
		}
	}

	return false
}

// Respond maps a language hint to a canned hotline message: hints starting
// with "sw" get Swahili, hints containing "sheng" get Sheng, everything else
// gets English.
func (d *Detector) Respond(langHint string) string {
	hint := strings.ToLower(strings.TrimSpace(langHint))

	switch {
	case strings.HasPrefix(hint, "sw"):
		return d.responses["sw"]
	case strings.Contains(hint, "sheng"):
		return d.responses["sheng"]
	default:
		return d.responses["en"]
	}
}

func NewDetector(opts ...Option) *Detector {
	options := NewOptions(opts...)

	return &Detector{
		keywords:  options.Keywords,
		responses: options.Responses,
	}
}
