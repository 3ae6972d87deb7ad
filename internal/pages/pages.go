package pages

import (
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

// WidgetsLive is the websocket path of the marketing-page widgets.
const WidgetsLive = "/ws/widgets"

func marketing(title, path string, mascot MascotState, body ...g.Node) g.Node {
	return Page(Chrome{Title: title, Path: path, Live: WidgetsLive, Mascot: &mascot}, body...)
}

// Home is the landing page.
func Home(mascot MascotState) g.Node {
	return marketing("", "/", mascot,
		h.Section(h.Class("hero"),
			h.H1(g.Text("Your community health companion")),
			h.P(h.Class("lead"),
				g.Text("SANJEEVANI AI answers everyday health questions and connects you with people who have been there."),
			),
			h.Div(h.Class("actions"),
				h.A(h.Class("button primary"), h.Href("/community"), g.Text("Join the community")),
				h.A(h.Class("button"), h.Href("/about"), g.Text("Learn more")),
			),
		),
		h.Section(h.Class("features"),
			feature("Ask anytime", "Chat with the SANJEEVANI assistant about symptoms, habits and wellbeing."),
			feature("Share and learn", "Post experiences and tips in a moderated community feed."),
			feature("Private by default", "Your conversations are tied to your account and nobody else's."),
		),
	)
}

func feature(title, text string) g.Node {
	return h.Article(h.Class("feature"),
		h.H3(g.Text(title)),
		h.P(g.Text(text)),
	)
}

// About describes the product.
func About(mascot MascotState) g.Node {
	return marketing("About", "/about", mascot,
		h.Section(h.Class("prose"),
			h.H1(g.Text("About SANJEEVANI AI")),
			h.P(g.Text("SANJEEVANI AI is a community health platform from DeLARSify. It combines an AI assistant for quick, careful answers with a community where members support one another.")),
			h.H2(g.Text("What it is not")),
			h.P(g.Text("The assistant does not diagnose or prescribe. When something sounds urgent it will tell you to contact a professional.")),
		),
	)
}

// Founder tells the founder's story.
func Founder(mascot MascotState) g.Node {
	return marketing("Founder's Story", "/founder", mascot,
		h.Section(h.Class("prose"),
			h.H1(g.Text("Founder's Story")),
			h.P(g.Text("SANJEEVANI began with a family trying to make sense of a diagnosis late at night, with nobody to ask.")),
			h.P(g.Text("The idea was simple: good first answers should be available to everyone, and nobody should feel alone while waiting for the next appointment.")),
			h.P(h.Class("quote"), g.Text("Health is a community effort.")),
		),
	)
}

// WhoWeAre shows the hover cards.
func WhoWeAre(mascot MascotState) g.Node {
	return marketing("Who Are We", "/who-we-are", mascot,
		h.Section(
			h.H1(g.Text("Who Are We")),
			h.P(h.Class("lead"), g.Text("Hover over a card to learn more.")),
			HoverCards(""),
		),
	)
}

// SignInOptions controls which sign-in methods the page offers.
type SignInOptions struct {
	Email  bool
	Google bool
	Error  string
}

// SignIn renders the sign-in page.
func SignIn(opts SignInOptions) g.Node {
	return Page(Chrome{Title: "Sign in", Path: "/signin"},
		h.Section(h.Class("signin"),
			h.H1(g.Text("Sign in")),
			h.P(g.Text("Sign in to chat with the assistant and join the community.")),
			g.If(opts.Error != "", h.P(h.Class("error"), h.Role("alert"), g.Text(opts.Error))),
			g.If(opts.Google,
				h.A(h.Class("button google"), h.Href("/auth/google"), g.Text("Continue with Google")),
			),
			g.If(opts.Email,
				h.Form(h.Method("post"), h.Action("/auth/signin"),
					h.Label(h.For("email"), g.Text("Email")),
					h.Input(h.ID("email"), h.Type("email"), h.Name("email"), h.Required(), h.AutoComplete("email")),
					h.Label(h.For("name"), g.Text("Display name")),
					h.Input(h.ID("name"), h.Type("text"), h.Name("name"), h.AutoComplete("nickname")),
					h.Button(h.Type("submit"), g.Text("Sign in with email")),
				),
			),
			g.If(!opts.Email && !opts.Google,
				h.P(h.Class("muted"), g.Text("Sign-in is not configured on this server.")),
			),
		),
	)
}

// CommunityLive is the websocket path of the community view.
const CommunityLive = "/ws/community"

// Community renders the community shell. The tab area is filled in by the
// live view once the session resolves; until then only a loading indicator
// is shown.
func Community() g.Node {
	return Page(Chrome{Title: "Community", Path: "/community", Live: CommunityLive, SignedIn: true},
		h.Section(h.ID("tab-area"), h.Class("tab-area"),
			h.P(h.Class("loading"), h.Role("status"), g.Text("Loading…")),
		),
	)
}
