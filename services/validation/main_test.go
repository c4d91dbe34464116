package validation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSmiles(t *testing.T) {
	t.Run("accepts common drug-like strings", func(t *testing.T) {
		validSmiles := []string{
			"CC(=O)Oc1ccccc1C(=O)O",                  // aspirin
			"CN1C=NC2=C1C(=O)N(C(=O)N2C)C",           // caffeine
			"C[C@H](N)C(=O)O",                        // alanine, with stereo marker
			"c1ccc2c(c1)ccc3c2ccc4c3cccc4",           // chrysene
			"CC(C)Cc1ccc(cc1)[C@@H](C)C(=O)O",        // ibuprofen
			"O=C(O)/C=C/c1ccccc1",                    // cinnamic acid, with slashes
			"[Na+].[Cl-]",                            // charged fragments
		}
		for _, smiles := range validSmiles {
			assert.True(t, ValidateSmiles(smiles), smiles)
		}
	})

	t.Run("rejects empty and whitespace-only input", func(t *testing.T) {
		assert.False(t, ValidateSmiles(""))
		assert.False(t, ValidateSmiles("   "))
		assert.False(t, ValidateSmiles("\t\n"))
	})

	t.Run("rejects any character outside the allowed charset", func(t *testing.T) {
		invalidSmiles := []string{
			"CC(=O)O!",
			"CC O",   // interior whitespace
			"CC;CC",
			"CC{N}",
			"CC(=O)O%",
			"C<C>",
		}
		for _, smiles := range invalidSmiles {
			assert.False(t, ValidateSmiles(smiles), smiles)
		}
	})

	t.Run("rejects odd bracket counts", func(t *testing.T) {
		assert.False(t, ValidateSmiles("C[C(=O)O"))   // odd square brackets
		assert.False(t, ValidateSmiles("CC(=O"))      // odd parentheses
		assert.False(t, ValidateSmiles("C[NH2][C"))   // two open one close
		assert.False(t, ValidateSmiles("CC=O)O"))
	})

	t.Run("rejects strings lacking any letter", func(t *testing.T) {
		assert.False(t, ValidateSmiles("123456"))
		assert.False(t, ValidateSmiles("(=#@+)"))
	})

	t.Run("rejects strings longer than the length cap", func(t *testing.T) {
		assert.True(t, ValidateSmiles(strings.Repeat("C", MaxSmilesLength)))
		assert.False(t, ValidateSmiles(strings.Repeat("C", MaxSmilesLength+1)))
	})
}

func TestParseDelimitedLigands(t *testing.T) {
	t.Run("parses two-column rows without a header", func(t *testing.T) {
		text := "Aspirin,CC(=O)Oc1ccccc1C(=O)O\nCaffeine,CN1C=NC2=C1C(=O)N(C(=O)N2C)C"

		ligands, lineErrors, parseErr := ParseDelimitedLigands(text, 1501)

		assert.Nil(t, parseErr)
		assert.Empty(t, lineErrors)
		assert.Len(t, ligands, 2)
		assert.Equal(t, "Aspirin", ligands[0].Name)
		assert.Equal(t, "CC(=O)Oc1ccccc1C(=O)O", ligands[0].Smiles)
		assert.Equal(t, "Caffeine", ligands[1].Name)
		assert.Equal(t, "CN1C=NC2=C1C(=O)N(C(=O)N2C)C", ligands[1].Smiles)
	})

	t.Run("skips a sniffed header row and numbers errors from line 2", func(t *testing.T) {
		text := "Name,SMILES\nbad entry,!!!not-smiles!!!\nCaffeine,CN1C=NC2=C1C(=O)N(C(=O)N2C)C"

		ligands, lineErrors, parseErr := ParseDelimitedLigands(text, 1501)

		assert.Nil(t, parseErr)
		assert.Len(t, ligands, 1)
		assert.Equal(t, "Caffeine", ligands[0].Name)
		assert.Len(t, lineErrors, 1)
		assert.Equal(t, 2, lineErrors[0].Line)
	})

	t.Run("auto-names one-column SMILES-only rows", func(t *testing.T) {
		text := "CC(=O)Oc1ccccc1C(=O)O\nCN1C=NC2=C1C(=O)N(C(=O)N2C)C"

		ligands, _, parseErr := ParseDelimitedLigands(text, 1501)

		assert.Nil(t, parseErr)
		assert.Len(t, ligands, 2)
		assert.Equal(t, "Ligand_1", ligands[0].Name)
		assert.Equal(t, "Ligand_2", ligands[1].Name)
	})

	t.Run("strips surrounding quotes and whitespace per field", func(t *testing.T) {
		text := `"Aspirin" , "CC(=O)Oc1ccccc1C(=O)O"`

		ligands, _, parseErr := ParseDelimitedLigands(text, 1501)

		assert.Nil(t, parseErr)
		assert.Len(t, ligands, 1)
		assert.Equal(t, "Aspirin", ligands[0].Name)
		assert.Equal(t, "CC(=O)Oc1ccccc1C(=O)O", ligands[0].Smiles)
	})

	t.Run("invalid rows are dropped, not fatal, unless all fail", func(t *testing.T) {
		text := "Aspirin,CC(=O)Oc1ccccc1C(=O)O\nbroken,???\nCaffeine,CN1C=NC2=C1C(=O)N(C(=O)N2C)C"

		ligands, lineErrors, parseErr := ParseDelimitedLigands(text, 1501)

		assert.Nil(t, parseErr)
		assert.Len(t, ligands, 2)
		assert.Len(t, lineErrors, 1)
	})

	t.Run("fails with EmptyFile when no non-blank lines exist", func(t *testing.T) {
		_, _, parseErr := ParseDelimitedLigands("\n\n   \n", 1501)
		assert.ErrorIs(t, parseErr, ErrEmptyFile)
	})

	t.Run("fails with NoValidEntries when every row is invalid", func(t *testing.T) {
		_, lineErrors, parseErr := ParseDelimitedLigands("a,???\nb,!!!", 1501)
		assert.ErrorIs(t, parseErr, ErrNoValidEntries)
		assert.Len(t, lineErrors, 2)
	})

	t.Run("fails with TooManyEntries above the per-form ceiling", func(t *testing.T) {
		var sb strings.Builder
		for i := 0; i < 101; i++ {
			sb.WriteString(fmt.Sprintf("Ligand%d,CC(=O)Oc1ccccc1C(=O)O\n", i))
		}

		// the simple batch form ceiling
		_, _, parseErr := ParseDelimitedLigands(sb.String(), 100)
		assert.ErrorIs(t, parseErr, ErrTooManyEntries)

		// the same input is fine for the screening form ceiling
		ligands, _, parseErr := ParseDelimitedLigands(sb.String(), 1501)
		assert.Nil(t, parseErr)
		assert.Len(t, ligands, 101)
	})
}

func TestValidateProteinSequence(t *testing.T) {
	assert.True(t, ValidateProteinSequence("MKTAYIAKQRQISFVKSHFSRQLEERLGLIEVQ"))
	assert.True(t, ValidateProteinSequence("mktayiakqr"))
	assert.False(t, ValidateProteinSequence(""))
	assert.False(t, ValidateProteinSequence("   "))
	assert.False(t, ValidateProteinSequence("MKT4YI"))
	assert.False(t, ValidateProteinSequence("MKT-AYI"))
}
