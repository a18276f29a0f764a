// Package ingest converts extracted knowledge-graph JSON files into facts.
// One <id>_kg.json file holds everything the extraction model pulled from one
// paper; treatments and results become sub-entities of the paper id.
package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/spacebio/kgsearch/internal/domain"
)

// Extraction mirrors the JSON emitted by the extraction pipeline.
type Extraction struct {
	Publication *struct {
		Title   string `json:"title"`
		Year    string `json:"year"`
		Journal string `json:"journal"`
	} `json:"publication"`
	Authors  []string `json:"authors"`
	Subjects *struct {
		Species []string `json:"species"`
		Tissues []string `json:"tissues"`
	} `json:"subjects"`
	Methods *struct {
		Platforms []string `json:"platforms"`
		Assays    []string `json:"assays"`
	} `json:"methods"`
	Treatments []struct {
		Agent string `json:"agent"`
		Dose  string `json:"dose"`
	} `json:"treatments"`
	Results []struct {
		Target string `json:"target"`
		Effect string `json:"effect"`
	} `json:"results"`
}

// SubjectFacts groups the facts of one subject, preserving write order.
type SubjectFacts struct {
	Subject string
	Facts   []domain.Fact
}

// Parse decodes an extraction JSON document.
func Parse(data []byte) (Extraction, error) {
	var ex Extraction
	if err := json.Unmarshal(data, &ex); err != nil {
		return Extraction{}, fmt.Errorf("parse extraction: %w", err)
	}
	return ex, nil
}

// Facts flattens an extraction into ordered per-subject fact lists. docID is
// the paper id (e.g. PMC1234567); sub-entity ids are derived with delim.
func Facts(docID string, ex Extraction, delim string) []SubjectFacts {
	var paper []domain.Fact
	add := func(pred, obj string) {
		paper = append(paper, domain.Fact{Subject: docID, Predicate: pred, Object: obj})
	}

	if ex.Publication != nil {
		add(domain.PredTitle, ex.Publication.Title)
		add(domain.PredJournal, ex.Publication.Journal)
		add(domain.PredYear, ex.Publication.Year)
	}
	for _, author := range ex.Authors {
		add(domain.PredAuthor, author)
	}
	if ex.Subjects != nil {
		for _, species := range ex.Subjects.Species {
			add("studies_species", species)
		}
		for _, tissue := range ex.Subjects.Tissues {
			add("studies_tissue", tissue)
		}
	}
	if ex.Methods != nil {
		for _, platform := range ex.Methods.Platforms {
			add("uses_platform", platform)
		}
		for _, assay := range ex.Methods.Assays {
			add("uses_assay", assay)
		}
	}

	var subs []SubjectFacts

	for i, t := range ex.Treatments {
		subID := fmt.Sprintf("%s%streatment%s%d", docID, delim, delim, i)
		add("has_treatment", subID)
		subs = append(subs, SubjectFacts{
			Subject: subID,
			Facts: []domain.Fact{
				{Subject: subID, Predicate: "agent", Object: t.Agent},
				{Subject: subID, Predicate: "dose", Object: t.Dose},
			},
		})
	}
	for i, r := range ex.Results {
		subID := fmt.Sprintf("%s%sresult%s%d", docID, delim, delim, i)
		add("has_result", subID)
		subs = append(subs, SubjectFacts{
			Subject: subID,
			Facts: []domain.Fact{
				{Subject: subID, Predicate: "target", Object: r.Target},
				{Subject: subID, Predicate: "effect", Object: r.Effect},
			},
		})
	}

	return append([]SubjectFacts{{Subject: docID, Facts: paper}}, subs...)
}
