package edit

import "github.com/dgallion1/deckedit/internal/xmltree"

// bgNames holds the qualified element names of the background chain for
// the prefixes a particular slide uses.
type bgNames struct {
	sld, cSld, bg, bgPr, bgRef, solidFill, srgbClr string
	effectLst, effectDag                           string
	fills, colors                                  []string
	order                                          xmltree.ChildOrder
}

func backgroundNames(root *xmltree.Node) bgNames {
	p := prefixFor(root, NSPresentationML, "p")
	a := prefixFor(root, NSDrawingML, "a")
	pn := func(l string) string { return xmltree.QName(p, l) }
	an := func(l string) string { return xmltree.QName(a, l) }

	n := bgNames{
		sld:       pn("sld"),
		cSld:      pn("cSld"),
		bg:        pn("bg"),
		bgPr:      pn("bgPr"),
		bgRef:     pn("bgRef"),
		solidFill: an("solidFill"),
		srgbClr:   an("srgbClr"),
		effectLst: an("effectLst"),
		effectDag: an("effectDag"),
		fills:     []string{an("noFill"), an("gradFill"), an("blipFill"), an("pattFill"), an("grpFill")},
		colors:    []string{an("scrgbClr"), an("hslClr"), an("sysClr"), an("schemeClr"), an("prstClr")},
	}
	n.order = xmltree.ChildOrder{
		n.sld:  {n.cSld, pn("clrMapOvr"), pn("transition"), pn("timing"), pn("extLst")},
		n.cSld: {n.bg, pn("spTree"), pn("custDataLst"), pn("controls"), pn("extLst")},
		n.bg:   {n.bgPr, n.bgRef},
		n.bgPr: {an("noFill"), n.solidFill, an("gradFill"), an("blipFill"), an("pattFill"), an("grpFill"),
			n.effectLst, n.effectDag, pn("extLst")},
	}
	return n
}

// SetBackground gives the slide rooted at root a solid background of color
// and returns the normalized colour.
//
// The chain p:cSld/p:bg/p:bgPr/a:solidFill/a:srgbClr is created as needed.
// Any competing definition is removed so exactly one fill remains: a theme
// reference (p:bgRef), other fill kinds in p:bgPr, other colour kinds in the
// solid fill, and colour modifiers on a previous a:srgbClr.
func SetBackground(root *xmltree.Node, color string) (string, error) {
	hex, err := NormalizeColor(color)
	if err != nil {
		return "", err
	}
	if _, ok := root.PrefixFor(NSDrawingML); !ok {
		root.SetAttr("xmlns:a", NSDrawingML)
	}
	n := backgroundNames(root)

	bg := xmltree.Resolve(root, n.order, n.cSld, n.bg)
	bg.RemoveChildren(n.bgRef)

	bgPr := xmltree.Ensure(bg, n.order, n.bgPr)
	bgPr.RemoveChildren(n.fills...)

	solid := xmltree.Ensure(bgPr, n.order, n.solidFill)
	solid.RemoveChildren(n.colors...)

	clr := xmltree.Ensure(solid, n.order, n.srgbClr)
	clr.Children = nil
	clr.Attrs = []xmltree.Attr{{Name: "val", Value: hex}}

	if bgPr.First(n.effectLst) == nil && bgPr.First(n.effectDag) == nil {
		xmltree.Ensure(bgPr, n.order, n.effectLst)
	}
	return hex, nil
}

// Background returns the solid background colour of the slide, or "" when
// it has none. The tree is not modified.
func Background(root *xmltree.Node) string {
	n := backgroundNames(root)
	clr := xmltree.Find(root, n.cSld, n.bg, n.bgPr, n.solidFill, n.srgbClr)
	if clr == nil {
		return ""
	}
	v, _ := clr.Attr("val")
	return v
}
