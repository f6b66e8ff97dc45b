// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package classify

import "github.com/AleutianAI/lessonlint/services/curriculum/model"

// TemplateRule assigns a printable asset template when any of its
// keywords occurs in the lesson text.
type TemplateRule struct {
	ID       string   `yaml:"id"`
	Keywords []string `yaml:"keywords"`
}

// SubstitutionRule rewrites a hands-on lesson around household items.
// It applies when any keyword occurs in the lesson text.
type SubstitutionRule struct {
	Name           string   `yaml:"name"`
	Keywords       []string `yaml:"keywords"`
	HouseholdItems []string `yaml:"household_items"`
	Preparation    string   `yaml:"preparation"`
	ControlOfError string   `yaml:"control_of_error"`
	Extension      string   `yaml:"extension"`
}

// Config is the immutable keyword and remediation data the classifier
// runs on. Two classifiers with equal configs produce identical output.
type Config struct {
	// ExemptSubject is always classified NONE.
	ExemptSubject model.Subject `yaml:"exempt_subject"`

	DirectVocabulary    []string `yaml:"direct_vocabulary"`
	PrintableVocabulary []string `yaml:"printable_vocabulary"`

	// SubjectDefaults decide zero-score lessons and tie-breaks.
	SubjectDefaults map[model.Subject]Modality `yaml:"subject_defaults"`

	// UnknownSubjectDefault applies to subjects missing from SubjectDefaults.
	UnknownSubjectDefault Modality `yaml:"unknown_subject_default"`

	// TieBreak, when set, overrides the subject default for non-zero ties.
	TieBreak Modality `yaml:"tie_break"`

	Templates        []TemplateRule `yaml:"templates"`
	FallbackTemplate string         `yaml:"fallback_template"`

	Substitutions        []SubstitutionRule `yaml:"substitutions"`
	FallbackSubstitution SubstitutionRule   `yaml:"fallback_substitution"`
}

// DefaultConfig returns the curated vocabularies and rules.
func DefaultConfig() Config {
	return Config{
		ExemptSubject: model.SubjectGraceCourtesy,
		DirectVocabulary: []string{
			"pour", "scoop", "spoon", "tongs", "tweez", "squeeze", "texture",
			"touch", "feel", "smell", "taste", "sand", "soil", "plant", "seed",
			"garden", "cook", "bake", "fold", "button", "zip", "lace", "wash",
			"scrub", "sweep", "polish", "pitcher", "beads", "cylinder", "tower",
			"stair", "rods", "bells", "blindfold", "hands-on", "outdoor", "nature walk",
			"sink", "float", "magnet", "balance",
		},
		PrintableVocabulary: []string{
			"worksheet", "card", "trace", "tracing", "write", "writing", "drawing",
			"color in", "label", "chart", "timeline", "map", "booklet", "print",
			"matching", "sequence", "nomenclature", "puzzle", "diagram", "counting",
			"numeral", "letter", "word", "story", "sheet",
		},
		SubjectDefaults: map[model.Subject]Modality{
			model.SubjectMath:            ModalityPrintable,
			model.SubjectLanguage:        ModalityPrintable,
			model.SubjectGeography:       ModalityPrintable,
			model.SubjectHistory:         ModalityPrintable,
			model.SubjectCulturalStudies: ModalityPrintable,
			model.SubjectPracticalLife:   ModalityDirect,
			model.SubjectSensorial:       ModalityDirect,
			model.SubjectScience:         ModalityDirect,
			model.SubjectArt:             ModalityDirect,
			model.SubjectMusic:           ModalityDirect,
			model.SubjectGraceCourtesy:   ModalityNone,
		},
		UnknownSubjectDefault: ModalityDirect,
		Templates: []TemplateRule{
			{ID: "three_part_cards", Keywords: []string{"nomenclature", "three-part", "three part"}},
			{ID: "tracing_sheet", Keywords: []string{"trace", "tracing", "sandpaper letter"}},
			{ID: "counting_sheet", Keywords: []string{"counting", "numeral", "number"}},
			{ID: "timeline_strip", Keywords: []string{"timeline"}},
			{ID: "map_outline", Keywords: []string{"map", "continent", "land and water"}},
			{ID: "sequencing_cards", Keywords: []string{"sequence", "story"}},
			{ID: "labeling_diagram", Keywords: []string{"label", "diagram", "parts of"}},
			{ID: "matching_game", Keywords: []string{"matching", "puzzle"}},
		},
		FallbackTemplate: "activity_sheet",
		Substitutions: []SubstitutionRule{
			{
				Name:           "pouring",
				Keywords:       []string{"pour", "pitcher"},
				HouseholdItems: []string{"two measuring cups", "dry rice or beans", "baking tray"},
				Preparation:    "Fill one cup halfway with rice and set both cups on the tray.",
				ControlOfError: "Spilled grains on the tray show the child where the pour went wrong.",
				Extension:      "Pour water instead of rice, then pour through a funnel.",
			},
			{
				Name:           "spooning",
				Keywords:       []string{"spoon", "scoop", "tongs", "tweez"},
				HouseholdItems: []string{"two small bowls", "tablespoon", "dried pasta"},
				Preparation:    "Place the pasta in the left bowl and the spoon beside it.",
				ControlOfError: "Pasta outside the bowls is visible on the table.",
				Extension:      "Use kitchen tongs or tweezers with smaller items.",
			},
			{
				Name:           "graded_sizes",
				Keywords:       []string{"cylinder", "tower", "stair", "rods", "graded"},
				HouseholdItems: []string{"nesting cups or boxes of five sizes"},
				Preparation:    "Mix the cups on a rug before inviting the child.",
				ControlOfError: "A cup that does not nest or stack shows an ordering mistake.",
				Extension:      "Order the cups blindfolded by touch alone.",
			},
			{
				Name:           "texture",
				Keywords:       []string{"texture", "touch", "feel", "blindfold", "fabric"},
				HouseholdItems: []string{"matched pairs of fabric scraps", "scarf for a blindfold"},
				Preparation:    "Cut two squares of each fabric and shuffle them in a basket.",
				ControlOfError: "Pairs that do not match by sight after unblinding.",
				Extension:      "Grade the fabrics from roughest to smoothest.",
			},
			{
				Name:           "sink_float",
				Keywords:       []string{"sink", "float"},
				HouseholdItems: []string{"basin of water", "cork", "spoon", "coin", "leaf", "sponge"},
				Preparation:    "Fill the basin and sort nothing in advance.",
				ControlOfError: "Testing each object in the water confirms the prediction.",
				Extension:      "Record predictions on a two-column chart before testing.",
			},
			{
				Name:           "plants",
				Keywords:       []string{"plant", "seed", "garden", "soil", "flower"},
				HouseholdItems: []string{"potted herb or cut flowers", "spray bottle", "small towel"},
				Preparation:    "Set the plant on a towel at child height.",
				ControlOfError: "Dry soil or drooping leaves show the care was missed.",
				Extension:      "Keep a weekly drawing journal of the plant's growth.",
			},
			{
				Name:           "dressing",
				Keywords:       []string{"button", "zip", "lace", "buckle", "snap"},
				HouseholdItems: []string{"adult shirt with large buttons", "jacket with zipper", "shoe with laces"},
				Preparation:    "Lay the garment flat and fully fastened.",
				ControlOfError: "A misaligned button or open gap is visible when done.",
				Extension:      "Fasten the garment while wearing it.",
			},
			{
				Name:           "cleaning",
				Keywords:       []string{"scrub", "wash", "polish", "sweep"},
				HouseholdItems: []string{"small bucket", "sponge", "dish soap", "hand towel"},
				Preparation:    "Fill the bucket a third full and lay out the towel.",
				ControlOfError: "Remaining marks or puddles show what still needs cleaning.",
				Extension:      "Clean a larger surface such as a chair or door.",
			},
			{
				Name:           "sound",
				Keywords:       []string{"bells", "sound", "pitch", "tone"},
				HouseholdItems: []string{"five matching glasses", "water", "metal spoon"},
				Preparation:    "Fill the glasses to different levels.",
				ControlOfError: "Tapping two glasses side by side reveals a pitch out of order.",
				Extension:      "Play a simple tune by ear.",
			},
		},
		FallbackSubstitution: SubstitutionRule{
			Name:           "generic",
			Preparation:    "Gather the listed materials on a tray before the lesson.",
			ControlOfError: "Use the listed materials, observe for independence.",
			Extension:      "Repeat the activity with the child leading the presentation.",
		},
	}
}
