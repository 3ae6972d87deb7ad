package pages

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	g "maragu.dev/gomponents"

	"github.com/delarsify/sanjeevani/internal/widgets"
)

//go:embed static
var staticFiles embed.FS

// Site holds what the page handlers need to know about the deployment.
type Site struct {
	// MascotMessages are the mascot bubble's messages, in order.
	MascotMessages []string
	// EmailSignIn and GoogleSignIn select the sign-in methods offered.
	EmailSignIn  bool
	GoogleSignIn bool
}

// RegisterRoutes mounts the marketing pages, the sign-in page and the
// embedded static assets. The community page is served by the live package.
func RegisterRoutes(r chi.Router, site Site) error {
	if _, err := widgets.NewBubble(site.MascotMessages); err != nil {
		return err
	}
	initial := MascotState{Message: site.MascotMessages[0]}

	marketingPage := func(page func(MascotState) g.Node) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			render(w, http.StatusOK, page(initial))
		}
	}

	r.Get("/", marketingPage(Home))
	r.Get("/about", marketingPage(About))
	r.Get("/founder", marketingPage(Founder))
	r.Get("/who-we-are", marketingPage(WhoWeAre))

	r.Get("/signin", func(w http.ResponseWriter, r *http.Request) {
		render(w, http.StatusOK, SignIn(SignInOptions{
			Email:  site.EmailSignIn,
			Google: site.GoogleSignIn,
			Error:  r.URL.Query().Get("error"),
		}))
	})

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return err
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(static)))
	return nil
}

// RenderCommunity writes the community shell.
func RenderCommunity(w http.ResponseWriter) {
	render(w, http.StatusOK, Community())
}
