package handlers

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/pbkdf2"
	"gorm.io/gorm"

	"github.com/spencer-p/tidecal/pkg/data"
	"github.com/spencer-p/tidecal/pkg/metrics"
	"github.com/spencer-p/tidecal/pkg/window"
)

const (
	sessionName = "tide-windows"
	userID      = "userid"

	// Session values used when no database is configured.
	sessionStation = "station"
	sessionMinTide = "minTide"
	sessionMaxTide = "maxTide"

	// See https://developer.chrome.com/blog/cookie-max-age-expires.
	defaultMaxAge = 60 * 60 * 24 * 400 // 400 days in seconds.
)

var store = &sessions.CookieStore{
	Codecs: securecookie.CodecsFromPairs(
		getSessionKey(),
		getEncryptionKey(),
	),
	Options: &sessions.Options{
		Path:     "/",
		MaxAge:   defaultMaxAge,
		Secure:   true,
		HttpOnly: true,
	},
}

func init() {
	store.MaxAge(defaultMaxAge)
}

// prefs is a visitor's saved defaults. Explicit URL parameters always win
// over these.
type prefs struct {
	Station          string
	MinTide, MaxTide *float64
}

func (p prefs) Threshold() window.Threshold {
	return window.Threshold{Low: p.MinTide, High: p.MaxTide}
}

// loadPrefs reads the visitor's preferences from their session, consulting
// the database when one is configured. Missing or unreadable preferences are
// not an error; the zero prefs works fine.
func loadPrefs(r *http.Request, db *gorm.DB) prefs {
	session, _ := store.Get(r, sessionName)
	metrics.ObserveUserRequest(session.Values[userID])

	if db == nil {
		return prefsFromSession(session)
	}

	id, ok := session.Values[userID].(uint)
	if !ok {
		return prefs{}
	}
	var user data.User
	if tx := db.First(&user, id); tx.Error != nil {
		log.Printf("Failed to find user %v: %v", id, tx.Error)
		return prefs{}
	}
	user.LastSeen = time.Now()
	db.Save(&user)
	return prefs{
		Station: user.Station,
		MinTide: user.MinTide,
		MaxTide: user.MaxTide,
	}
}

func prefsFromSession(session *sessions.Session) prefs {
	var p prefs
	if s, ok := session.Values[sessionStation].(string); ok {
		p.Station = s
	}
	p.MinTide = sessionFloat(session, sessionMinTide)
	p.MaxTide = sessionFloat(session, sessionMaxTide)
	return p
}

func sessionFloat(session *sessions.Session, key string) *float64 {
	s, ok := session.Values[key].(string)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func makeConfigHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s", r.Method, r.URL)

		if r.Method == http.MethodGet {
			p := loadPrefs(r, cfg.DB)
			w.Header().Add("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(p); err != nil {
				log.Printf("Failed to encode preferences: %v", err)
			}
			return
		}
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if err := r.ParseForm(); err != nil {
			msg := fmt.Sprintf("Failed to parse form: %v", err)
			log.Println(msg)
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, msg)
			return
		}

		session, _ := store.Get(r, sessionName)

		if cfg.DB == nil {
			session.Values[sessionStation] = r.PostForm.Get("station")
			session.Values[sessionMinTide] = r.PostForm.Get("min_tide")
			session.Values[sessionMaxTide] = r.PostForm.Get("max_tide")
			if err := session.Save(r, w); err != nil {
				log.Println("save session err", err)
			}
			http.Redirect(w, r, redirectTarget(cfg.Prefix), http.StatusFound)
			return
		}

		var user data.User
		if id, ok := session.Values[userID].(uint); ok {
			// Read-modify-write if the user provided an ID.
			// Otherwise, one will be generated with db.Save later.
			cfg.DB.First(&user, id)
		}
		user.Station = r.PostForm.Get("station")
		if f, err := strconv.ParseFloat(r.PostForm.Get("min_tide"), 64); err == nil {
			user.MinTide = &f
		} else {
			user.MinTide = nil
		}
		if f, err := strconv.ParseFloat(r.PostForm.Get("max_tide"), 64); err == nil {
			user.MaxTide = &f
		} else {
			user.MaxTide = nil
		}
		user.Name = r.PostForm.Get("name")
		user.LastSeen = time.Now()

		if tx := cfg.DB.Save(&user); tx.Error != nil {
			msg := fmt.Sprintf("Failed to save preferences: %v", tx.Error)
			log.Println(msg)
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, msg)
			return
		}
		session.Values[userID] = user.ID
		if err := session.Save(r, w); err != nil {
			log.Println("save session err", err)
		}

		http.Redirect(w, r, redirectTarget(cfg.Prefix), http.StatusFound)
	}
}

func redirectTarget(prefix string) string {
	if prefix == "" {
		return "/"
	}
	return prefix
}

// getSessionKey returns a key to authenticate session cookies defined in the
// environment.
// If it is not set, it uses a compile-time default.
func getSessionKey() []byte {
	defaultKey := []byte("deadbeef")
	if key := os.Getenv("SESSION_KEY"); key != "" {
		return []byte(key)
	}
	return defaultKey
}

func getEncryptionKey() []byte {
	password := "deadbeef"
	if fromEnv := os.Getenv("ENCRYPTION_KEY"); fromEnv != "" {
		password = fromEnv
	}
	return pbkdf2.Key([]byte(password), []byte{}, 4096, 32, sha1.New)
}
