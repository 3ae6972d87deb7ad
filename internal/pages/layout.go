// Package pages renders the server-side HTML of the site: the marketing pages,
// the sign-in page and the community shell that the live view takes over.
package pages

import (
	"net/http"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

// Brand is the product name shown in the page chrome.
const Brand = "SANJEEVANI AI"

// Chrome describes the shared frame around a page body.
type Chrome struct {
	Title string
	// Path is the request path, used to highlight the current nav link.
	Path string
	// Live is the websocket path the page's live view connects to.
	Live string
	// Mascot, when non-nil, renders the mascot bubble in its initial state.
	Mascot *MascotState
	// SignedIn switches the nav to the member variant.
	SignedIn bool
}

type navLink struct {
	href  string
	label string
}

var navLinks = []navLink{
	{"/", "Home"},
	{"/about", "About"},
	{"/founder", "Founder's Story"},
	{"/who-we-are", "Who Are We"},
	{"/community", "Community"},
}

// Page wraps body in the document, the navbar and the footer.
func Page(c Chrome, body ...g.Node) g.Node {
	title := Brand
	if c.Title != "" {
		title = c.Title + " | " + Brand
	}

	return g.Group{
		h.Doctype(
			h.HTML(h.Lang("en"),
				h.Head(
					h.Meta(h.Charset("utf-8")),
					h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1")),
					h.TitleEl(g.Text(title)),
					h.Link(h.Rel("stylesheet"), h.Href("/static/site.css")),
					h.Script(h.Src("/static/live.js"), h.Defer()),
				),
				h.Body(
					g.If(c.Live != "", h.Data("live", c.Live)),
					Navbar(c.Path, c.SignedIn),
					h.Main(h.ID("content"), g.Group(body)),
					mascotNode(c.Mascot),
					h.Div(h.ID("toasts"), h.Class("toasts"), g.Attr("aria-live", "polite")),
					Footer(),
				),
			),
		),
	}
}

// Navbar is the top navigation shared by every page.
func Navbar(path string, signedIn bool) g.Node {
	return h.Nav(h.Class("navbar"),
		h.A(h.Class("brand"), h.Href("/"), g.Text(Brand)),
		h.Ul(h.Class("nav-links"),
			g.Map(navLinks, func(l navLink) g.Node {
				return h.Li(
					h.A(h.Href(l.href), g.If(l.href == path, h.Class("active")), g.Text(l.label)),
				)
			}),
		),
		g.If(signedIn,
			h.Form(h.Class("signout"), h.Method("post"), h.Action("/auth/signout"),
				h.Button(h.Type("submit"), h.Data("event", "sign_out"), g.Text("Sign out")),
			),
		),
		g.If(!signedIn && path != "/signin",
			h.A(h.Class("button"), h.Href("/signin"), g.Text("Sign in")),
		),
	)
}

// Footer is the page footer shared by every page.
func Footer() g.Node {
	return h.Footer(h.Class("footer"),
		h.P(g.Text("DeLARSify · "+Brand)),
		h.P(h.Class("muted"), g.Text("Not a substitute for professional medical advice.")),
	)
}

func mascotNode(m *MascotState) g.Node {
	if m == nil {
		return nil
	}
	return Mascot(*m)
}

func render(w http.ResponseWriter, status int, n g.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = n.Render(w)
}
