// Package report prints the summary of a verification run in the language of
// the user.
package report

import (
	"fmt"
	"io"
	"log"

	"github.com/jeandeaual/go-locale"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sarchlab/apbverif/verif"
)

// Message keys. They double as the English text.
const (
	msgHeader     = "Verification run %s\n"
	msgIssued     = "Transactions issued: %d of %d\n"
	msgChecked    = "Transactions checked: %d (%d writes, %d reads, %d faults)\n"
	msgMismatches = "Mismatches: %d\n"
	msgTime       = "Simulated time: %d cycles (%.3f us)\n"
	msgAborted    = "Run aborted: %v\n"
	msgPassed     = "Result: PASSED\n"
	msgFailed     = "Result: FAILED\n"
)

func init() {
	translations := map[language.Tag]map[string]string{
		language.German: {
			msgHeader:     "Verifikationslauf %s\n",
			msgIssued:     "Erzeugte Transaktionen: %d von %d\n",
			msgChecked:    "Geprüfte Transaktionen: %d (%d Schreibzugriffe, %d Lesezugriffe, %d Fehler)\n",
			msgMismatches: "Abweichungen: %d\n",
			msgTime:       "Simulierte Zeit: %d Takte (%.3f us)\n",
			msgAborted:    "Lauf abgebrochen: %v\n",
			msgPassed:     "Ergebnis: BESTANDEN\n",
			msgFailed:     "Ergebnis: FEHLGESCHLAGEN\n",
		},
		language.French: {
			msgHeader:     "Vérification %s\n",
			msgIssued:     "Transactions émises : %d sur %d\n",
			msgChecked:    "Transactions vérifiées : %d (%d écritures, %d lectures, %d erreurs)\n",
			msgMismatches: "Divergences : %d\n",
			msgTime:       "Temps simulé : %d cycles (%.3f us)\n",
			msgAborted:    "Exécution interrompue : %v\n",
			msgPassed:     "Résultat : RÉUSSI\n",
			msgFailed:     "Résultat : ÉCHEC\n",
		},
	}

	for tag, messages := range translations {
		for key, msg := range messages {
			if err := message.SetString(tag, key, msg); err != nil {
				log.Panic(err)
			}
		}
	}
}

// Reporter writes run summaries.
type Reporter struct {
	printer *message.Printer
}

// New creates a reporter that prints in the language best matching tag.
func New(tag language.Tag) *Reporter {
	return &Reporter{
		printer: message.NewPrinter(tag),
	}
}

// NewFromLocale creates a reporter for the locale of the user, falling back
// to American English.
func NewFromLocale() *Reporter {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("report: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	return New(message.MatchLanguage(locales...))
}

// Write prints the summary of a run. runErr is the error returned by the run,
// if any.
func (r *Reporter) Write(
	w io.Writer,
	name string,
	total int,
	result verif.Result,
	runErr error,
) error {
	p := r.printer
	lines := []string{
		p.Sprintf(msgHeader, name),
		p.Sprintf(msgIssued, result.Issued, total),
		p.Sprintf(msgChecked,
			result.Checked, result.Writes, result.Reads, result.Faults),
		p.Sprintf(msgMismatches, result.Mismatches),
		p.Sprintf(msgTime,
			uint64(result.Cycles), float64(result.Duration)*1e6),
	}

	if runErr != nil {
		lines = append(lines, p.Sprintf(msgAborted, runErr))
	}

	if runErr == nil && result.Passed() {
		lines = append(lines, p.Sprintf(msgPassed))
	} else {
		lines = append(lines, p.Sprintf(msgFailed))
	}

	for _, line := range lines {
		if _, err := fmt.Fprint(w, line); err != nil {
			return err
		}
	}

	return nil
}
