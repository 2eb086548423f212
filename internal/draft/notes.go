package draft

// defaultFinalNotes is the built-in "please note" boilerplate per proposal
// language. Loaded once at process start and treated as configuration data;
// charterdesk.yml may override individual languages.
var defaultFinalNotes = map[string]string{
	"en": `Please note:

For some yachts, port fees in Capri of €100 - €200 (for 60 feet vessels) are not included.
Availabilities might change from the moment we send the quote to the moment you actually confirm. We will need to set a date to fully confirm availability.
We will be more than happy to assist you by booking your preferred restaurant for the day.`,
	"es": `Nota:

Para algunos yates, las tasas de puerto en Capri de €100 - €200 (para embarcaciones de 60 pies) no están incluidas.
La disponibilidad puede cambiar entre el envío del presupuesto y la confirmación. Necesitaremos fijar una fecha para confirmarla.
Estaremos encantados de ayudarte reservando tu restaurante preferido para ese día.`,
	"pt": `Nota:

Para alguns iates, as taxas de porto em Capri de €100 - €200 (para embarcações de 60 pés) não estão incluídas.
A disponibilidade pode mudar entre o envio do orçamento e a confirmação. Precisaremos definir uma data para confirmar.
Teremos todo o prazer em ajudar reservando o seu restaurante preferido para o dia.`,
	"it": `Nota:

Per alcuni yacht, le tasse portuali a Capri di €100 - €200 (per imbarcazioni di 60 piedi) non sono incluse.
La disponibilità può cambiare tra l’invio del preventivo e la conferma. Dovremo fissare una data per confermare.
Saremo felici di aiutarti prenotando il tuo ristorante preferito per la giornata.`,
	"fr": `Veuillez noter :

Pour certains yachts, les frais de port à Capri de 100 € à 200 € (pour des bateaux d’environ 60 pieds) ne sont pas inclus.
Les disponibilités peuvent changer entre l’envoi du devis et votre confirmation. Nous devrons fixer une date pour confirmer définitivement la disponibilité.
Nous serons ravis de vous aider en réservant votre restaurant préféré pour la journée.`,
	"de": `Bitte beachten:

Für einige Yachten sind die Hafen-/Liegegebühren in Capri von 100–200 € (für Boote um 60 Fuß) nicht inbegriffen.
Verfügbarkeiten können sich zwischen Versand des Angebots und Ihrer Bestätigung ändern. Wir müssen ein Datum festlegen, um die Verfügbarkeit final zu bestätigen.
Gerne unterstützen wir Sie dabei, Ihr bevorzugtes Restaurant für den Tag zu reservieren.`,
}

// DefaultNotes returns the built-in boilerplate table merged with the given
// per-language overrides.
func DefaultNotes(overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(defaultFinalNotes))
	for lang, text := range defaultFinalNotes {
		merged[lang] = text
	}
	for lang, text := range overrides {
		merged[lang] = text
	}
	return merged
}
