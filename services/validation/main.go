package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"boltzmon/api/models"
)

/*
	Heuristic syntactic screening of pasted/uploaded ligand input.
	This is deliberately NOT a chemical grammar parser; false
	positives/negatives on exotic SMILES are accepted.
*/

const MaxSmilesLength = 300

var (
	ErrEmptyFile      = errors.New("no ligand lines found in file")
	ErrNoValidEntries = errors.New("no valid ligand entries in file")
	ErrTooManyEntries = errors.New("too many ligand entries for this batch form")
)

// LineError points at one rejected row; line numbers are physical
// file line numbers (a skipped header still counts as line 1).
type LineError struct {
	Line    int
	Message string
}

var (
	smilesCharsetRegex = regexp.MustCompile(`^[A-Za-z0-9\[\]()=#@+\-\./:]+$`)
	smilesLetterRegex  = regexp.MustCompile(`[A-Za-z]`)
)

func ValidateSmiles(smiles string) bool {
	trimmed := strings.TrimSpace(smiles)
	if len(trimmed) == 0 {
		return false
	}
	if len(trimmed) > MaxSmilesLength {
		return false
	}

	if !smilesCharsetRegex.MatchString(trimmed) {
		return false
	}

	// at least one atom
	if !smilesLetterRegex.MatchString(trimmed) {
		return false
	}

	// bracket parity only, not a full grammar
	if strings.Count(trimmed, "[") != strings.Count(trimmed, "]") {
		return false
	}
	if strings.Count(trimmed, "(") != strings.Count(trimmed, ")") {
		return false
	}

	return true
}

// ParseDelimitedLigands interprets pasted or uploaded delimited text as
// ligand rows. One-column rows are SMILES-only and get a positional
// placeholder name; rows with two or more columns read name then SMILES.
// Rows failing ValidateSmiles are collected as line errors and dropped;
// that is only fatal when every row fails.
func ParseDelimitedLigands(text string, ceiling int) ([]models.LigandRecord, []LineError, error) {
	var ligands []models.LigandRecord
	var lineErrors []LineError

	// gather non-blank lines with their physical line numbers
	type numberedLine struct {
		number int
		text   string
	}
	var lines []numberedLine
	for i, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if len(strings.TrimSpace(raw)) == 0 {
			continue
		}
		lines = append(lines, numberedLine{number: i + 1, text: raw})
	}

	if len(lines) == 0 {
		return nil, nil, ErrEmptyFile
	}

	// sniff for a header row by keyword and skip it if found
	if looksLikeHeader(lines[0].text) {
		lines = lines[1:]
		if len(lines) == 0 {
			return nil, nil, ErrEmptyFile
		}
	}

	for _, line := range lines {
		fields := strings.Split(line.text, ",")
		for f := range fields {
			fields[f] = cleanField(fields[f])
		}

		var name, smiles string
		if len(fields) == 1 {
			// SMILES-only row; name assigned positionally below
			smiles = fields[0]
		} else {
			name = fields[0]
			smiles = fields[1]
		}

		if !ValidateSmiles(smiles) {
			lineErrors = append(lineErrors, LineError{
				Line:    line.number,
				Message: fmt.Sprintf("invalid SMILES string: %q", smiles),
			})
			continue
		}

		if name == "" {
			name = fmt.Sprintf("Ligand_%d", len(ligands)+1)
		}

		ligands = append(ligands, models.LigandRecord{Name: name, Smiles: smiles})
	}

	if len(ligands) == 0 {
		return nil, lineErrors, ErrNoValidEntries
	}

	if len(ligands) > ceiling {
		return nil, lineErrors, fmt.Errorf("%w: %d entries exceeds the %d entry ceiling",
			ErrTooManyEntries, len(ligands), ceiling)
	}

	return ligands, lineErrors, nil
}

var proteinSequenceRegex = regexp.MustCompile(`^[ACDEFGHIKLMNPQRSTVWYXacdefghiklmnpqrstvwyx\s]+$`)

// ValidateProteinSequence checks for a plausible one-letter amino acid
// sequence; whitespace is tolerated, anything else is not.
func ValidateProteinSequence(sequence string) bool {
	if len(strings.TrimSpace(sequence)) == 0 {
		return false
	}
	return proteinSequenceRegex.MatchString(sequence)
}

func looksLikeHeader(line string) bool {
	lowered := strings.ToLower(line)
	for _, keyword := range []string{"smiles", "name", "compound"} {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

func cleanField(field string) string {
	cleaned := strings.TrimSpace(field)
	cleaned = strings.Trim(cleaned, `"'`)
	return strings.TrimSpace(cleaned)
}
