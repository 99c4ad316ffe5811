package component

// extract runs the provider of the descriptor's authoring variant. The
// result holds the component's own members only.
func (x *extractor) extract(desc *Descriptor) Members {
	var members Members

	switch decl := desc.Declaration.(type) {
	case OptionsLiteral:
		x.options(decl.Literal, &members)
	case ClassDecorator:
		// the decorator argument is authoritative; class fields are not
		// component members
		x.options(desc.Initializer, &members)
	case ScriptSetup:
		x.options(decl.Options, &members)
		x.options(decl.DefineOptions, &members)
		x.scriptSetup(decl.Program, &members)
	case WholeFile:
	}

	// typed slot declarations win over slots found in markup
	for _, slot := range x.templateSlots(desc) {
		if _, ok := members.Find(SectionSlots, slot.Name); !ok {
			members.Add(SectionSlots, slot)
		}
	}
	return members
}
