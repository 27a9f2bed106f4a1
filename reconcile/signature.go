package reconcile

import "github.com/teranos/pixelcheck/extract"

// Signature is the structural fingerprint of a recipe, "T{text}B{button}".
func Signature(r extract.Recipe) string {
	return r.Signature()
}

// IdentityOf is the exact-match join key of a group, "name|signature".
// Two groups with the same identity are the same kind of instance whatever
// platform they came from.
func IdentityOf(g extract.StructuralGroup) string {
	return g.Name + "|" + Signature(g.Recipe)
}
