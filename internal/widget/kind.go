// Package widget defines the output vocabulary of figclass: widget kinds,
// the explicit-name prefix table and the container/widget schema tree.
package widget

import "sort"

// Kind names a widget type in the page-builder vocabulary.
type Kind string

// Leaf widgets.
const (
	KindHeading       Kind = "heading"
	KindTextEditor    Kind = "text-editor"
	KindButton        Kind = "button"
	KindImage         Kind = "image"
	KindIcon          Kind = "icon"
	KindImageBox      Kind = "image-box"
	KindIconBox       Kind = "icon-box"
	KindIconList      Kind = "icon-list"
	KindListItem      Kind = "list-item"
	KindDivider       Kind = "divider"
	KindSpacer        Kind = "spacer"
	KindCountdown     Kind = "countdown"
	KindForm          Kind = "form"
	KindLogin         Kind = "login"
	KindVideo         Kind = "video"
	KindImageCarousel Kind = "image-carousel"
	KindGallery       Kind = "basic-gallery"
	KindStarRating    Kind = "star-rating"
	KindSocialIcons   Kind = "social-icons"
	KindTestimonial   Kind = "testimonial"
	KindGoogleMaps    Kind = "google-maps"
	KindPriceTable    Kind = "price-table"
	KindFlipBox       Kind = "flip-box"
	KindCallToAction  Kind = "call-to-action"
	KindNavMenu       Kind = "nav-menu"
	KindAccordion     Kind = "accordion"
	KindToggle        Kind = "toggle"
	KindTabs          Kind = "tabs"
	KindHero          Kind = "hero"
	KindColumn        Kind = "column"
	KindCustom        Kind = "custom"

	KindProductTitle     Kind = "woo:product-title"
	KindProductPrice     Kind = "woo:product-price"
	KindProductAddToCart Kind = "woo:product-add-to-cart"
	KindProductImage     Kind = "woo:product-image"
	KindLoopGrid         Kind = "loop:grid"
)

// Structural kinds. Nodes classified with these recurse as containers.
const (
	KindContainer      Kind = "container"
	KindInnerContainer Kind = "inner-container"
	KindSection        Kind = "section"
)

var vocabulary = map[Kind]bool{
	KindHeading: true, KindTextEditor: true, KindButton: true, KindImage: true,
	KindIcon: true, KindImageBox: true, KindIconBox: true, KindIconList: true,
	KindListItem: true, KindDivider: true, KindSpacer: true, KindCountdown: true,
	KindForm: true, KindLogin: true, KindVideo: true, KindImageCarousel: true,
	KindGallery: true, KindStarRating: true, KindSocialIcons: true,
	KindTestimonial: true, KindGoogleMaps: true, KindPriceTable: true,
	KindFlipBox: true, KindCallToAction: true, KindNavMenu: true,
	KindAccordion: true, KindToggle: true, KindTabs: true, KindHero: true,
	KindColumn: true, KindCustom: true,
	KindProductTitle: true, KindProductPrice: true, KindProductAddToCart: true,
	KindProductImage: true, KindLoopGrid: true,
	KindContainer: true, KindInnerContainer: true, KindSection: true,
}

// Known reports whether k belongs to the closed widget vocabulary.
func Known(k Kind) bool {
	return vocabulary[k]
}

// IsStructural reports whether nodes of this kind are containers whose
// children are classified independently.
func (k Kind) IsStructural() bool {
	switch k {
	case KindContainer, KindInnerContainer, KindSection:
		return true
	}
	return false
}

// IsText reports whether the kind renders a run of text.
func (k Kind) IsText() bool {
	switch k {
	case KindHeading, KindTextEditor, KindProductTitle, KindProductPrice:
		return true
	}
	return false
}

// IsVisual reports whether the kind is a standalone visual anchor.
func (k Kind) IsVisual() bool {
	switch k {
	case KindImage, KindIcon, KindProductImage:
		return true
	}
	return false
}

// Vocabulary returns every known kind in lexical order.
func Vocabulary() []Kind {
	out := make([]Kind, 0, len(vocabulary))
	for k := range vocabulary {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
