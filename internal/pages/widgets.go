package pages

import (
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/delarsify/sanjeevani/internal/widgets"
)

// MascotState is the rendered state of the mascot bubble.
type MascotState struct {
	Open    bool   `json:"open"`
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// MascotStateOf snapshots b.
func MascotStateOf(b *widgets.Bubble) MascotState {
	return MascotState{Open: b.Open(), Index: b.Index(), Message: b.Message()}
}

// Mascot renders the mascot and its chat bubble.
func Mascot(s MascotState) g.Node {
	return h.Aside(h.ID("mascot"), h.Class("mascot"),
		h.Div(h.ID("mascot-bubble"), h.Class("bubble"),
			g.If(!s.Open, g.Attr("hidden")),
			h.P(g.Text(s.Message)),
			h.A(h.Href("/community"), g.Text("Chat with SIA")),
		),
		h.Button(h.Type("button"), h.Class("mascot-toggle"),
			h.Data("event", "bubble_toggle"),
			g.Attr("aria-expanded", boolAttr(s.Open)),
			g.Text("SIA"),
		),
	)
}

// Card is one Who Are We hover card.
type Card struct {
	ID      widgets.CardID
	Title   string
	Summary string
	Detail  string
}

// WhoWeAreCards is the fixed set of hover cards on the Who Are We page.
var WhoWeAreCards = []Card{
	{
		ID:      "mission",
		Title:   "Our Mission",
		Summary: "Health guidance for every community.",
		Detail:  "We pair an AI health assistant with a caring community so nobody has to figure out their wellbeing alone.",
	},
	{
		ID:      "vision",
		Title:   "Our Vision",
		Summary: "Preventive care that starts at home.",
		Detail:  "Everyday habits, early questions and shared experience, long before a clinic visit is needed.",
	},
	{
		ID:      "team",
		Title:   "Our Team",
		Summary: "Clinicians, engineers and volunteers.",
		Detail:  "A small team from DeLARSify building tools with the communities that use them.",
	},
	{
		ID:      "values",
		Title:   "Our Values",
		Summary: "Privacy, kindness, evidence.",
		Detail:  "Your conversations stay yours, every member is treated with respect and advice is grounded in evidence.",
	},
}

// CardIDs returns the ids of WhoWeAreCards in order.
func CardIDs() []widgets.CardID {
	ids := make([]widgets.CardID, len(WhoWeAreCards))
	for i, c := range WhoWeAreCards {
		ids[i] = c.ID
	}
	return ids
}

// HoverCards renders the card grid with active expanded. An empty active
// renders every card collapsed.
func HoverCards(active widgets.CardID) g.Node {
	return h.Div(h.ID("cards"), h.Class("cards"),
		g.Map(WhoWeAreCards, func(c Card) g.Node {
			on := c.ID == active
			class := "card"
			if on {
				class += " active"
			}
			return h.Article(h.Class(class),
				h.Data("card", string(c.ID)),
				h.H3(g.Text(c.Title)),
				h.P(g.Text(c.Summary)),
				h.P(h.Class("card-detail"), g.If(!on, g.Attr("hidden")), g.Text(c.Detail)),
			)
		}),
	)
}

func boolAttr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
