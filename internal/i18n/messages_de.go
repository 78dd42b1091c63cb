package i18n

var germanMessages = map[string]string{
	"speak.playing.artist":   "Ich spiele Musik von %s",
	"speak.playing.album":    "Ich spiele das Album %s von %s",
	"speak.playing.track":    "Ich spiele %s von %s",
	"speak.playing.playlist": "Ich spiele die Playlist %s",
	"speak.queued.artist":    "Ich füge Musik von %s zur Warteschlange hinzu",
	"speak.queued.album":     "Ich füge das Album %s von %s zur Warteschlange hinzu",
	"speak.queued.track":     "Ich füge %s von %s zur Warteschlange hinzu",
	"speak.radio.started":    "Ich spiele Musik ähnlich wie %s",
	"speak.random.started":   "Ich spiele zufällige Musik aus deiner Bibliothek",
	"speak.playlists.list":   "Du hast die folgenden Playlists: %s",

	"error.no_match":        "Ich konnte %s auf deinem Musikserver nicht finden",
	"error.no_match.artist": "Ich konnte keine Musik von %s finden",
	"error.no_match.radio":  "Ich konnte nichts Ähnliches wie %s finden",
	"error.no_random":       "Ich konnte keine zufällige Musik von deinem Server holen",
	"error.no_playlists":    "Auf deinem Musikserver gibt es keine Playlists",
	"error.playback":        "Beim Starten der Wiedergabe ist etwas schiefgelaufen",
}
