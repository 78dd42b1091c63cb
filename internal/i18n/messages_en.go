package i18n

var englishMessages = map[string]string{
	"speak.playing.artist":   "Playing music by %s",
	"speak.playing.album":    "Playing the album %s by %s",
	"speak.playing.track":    "Playing %s by %s",
	"speak.playing.playlist": "Playing the playlist %s",
	"speak.queued.artist":    "Adding music by %s to the queue",
	"speak.queued.album":     "Adding the album %s by %s to the queue",
	"speak.queued.track":     "Adding %s by %s to the queue",
	"speak.radio.started":    "Playing music similar to %s",
	"speak.random.started":   "Playing random music from your library",
	"speak.playlists.list":   "You have the following playlists: %s",

	"error.no_match":        "I could not find %s on your music server",
	"error.no_match.artist": "I could not find any music by %s",
	"error.no_match.radio":  "I could not find anything similar to %s",
	"error.no_random":       "I could not get any random music from your server",
	"error.no_playlists":    "There are no playlists on your music server",
	"error.playback":        "Something went wrong starting playback",
}
