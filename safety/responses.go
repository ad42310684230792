package safety

// Canned hotline messages, one per supported language. 999 is the Kenya
// Police emergency line; 1195 is the national GBV toll-free helpline.
var defaultResponses = map[string]string{
	"en": "If you are in immediate danger, call **999** (Kenya Police) now. " +
		"You can also reach the **GBV Toll-Free Helpline 1195**. " +
		"If safe, share your location with a trusted person. " +
		"This chat is anonymous; no data is stored.",
	"sw": "Ukiwa kwenye hatari sasa, pigia **999** (Polisi wa Kenya) mara moja. " +
		"Pia unaweza kupiga **1195** – Huduma ya GBV bila malipo. " +
		"Ikiwa ni salama, shiriki eneo lako na mtu unayemuamini. " +
		"Mazungumzo haya ni ya siri; hakuna taarifa inayohifadhiwa.",
	"sheng": "Kama ni urgent, pigia **999** saa hii. Pia kuna **1195** ya GBV – free. " +
		"Kama ni poa, tuma location kwa mtu wako wa kuamini. " +
		"Hii chat ni anonymous; hatu-hifadhi details zako.",
}
