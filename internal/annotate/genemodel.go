package annotate

// GeneModel ties a gene or exon charset to its mandatory coding charset.
// Introns and spacers sharing the base name ride along unpaired.
type GeneModel struct {
	Base   string
	Gene   *Charset // gene- or exon-kind region; nil for CDS-only models
	CDS    *Charset
	Others []*Charset
}

// ModelSet is the validated model collection plus the charset emission
// order: declaration order, with a paired gene hoisted immediately before
// its CDS at the pair's earliest declaration slot.
type ModelSet struct {
	Models  []*GeneModel
	Ordered []*Charset

	byCharset map[*Charset]*GeneModel
}

// ModelFor returns the model a charset belongs to, or nil when the charset
// is carried unpaired.
func (s *ModelSet) ModelFor(cs *Charset) *GeneModel {
	return s.byCharset[cs]
}

type modelKey struct {
	base   string
	strand Strand
}

// BuildModels groups charsets by base name and strand and enforces the
// pairing rule: every gene/exon charset needs exactly one CDS charset with
// the same base and strand. No charset lands in more than one model.
func BuildModels(charsets []*Charset) (*ModelSet, error) {
	type slot struct {
		gene   *Charset
		cds    *Charset
		others []*Charset
	}
	slots := make(map[modelKey]*slot)

	for _, cs := range charsets {
		key := modelKey{base: cs.Base, strand: cs.Strand}
		sl := slots[key]
		if sl == nil {
			sl = &slot{}
			slots[key] = sl
		}
		switch cs.Kind {
		case KindGene, KindExon:
			if sl.gene != nil {
				return nil, &DuplicateRoleError{Charset: cs.Name, Existing: sl.gene.Name}
			}
			sl.gene = cs
		case KindCDS:
			if sl.cds != nil {
				return nil, &DuplicateRoleError{Charset: cs.Name, Existing: sl.cds.Name}
			}
			sl.cds = cs
		default:
			sl.others = append(sl.others, cs)
		}
	}

	// Pairing check in declaration order so the first offender is named.
	for _, cs := range charsets {
		if cs.Kind != KindGene && cs.Kind != KindExon {
			continue
		}
		if slots[modelKey{base: cs.Base, strand: cs.Strand}].cds == nil {
			return nil, &PairingError{Charset: cs.Name}
		}
	}

	set := &ModelSet{byCharset: make(map[*Charset]*GeneModel)}
	built := make(map[modelKey]*GeneModel)
	for _, cs := range charsets {
		key := modelKey{base: cs.Base, strand: cs.Strand}
		sl := slots[key]
		if sl.cds == nil {
			continue // introns/spacers without a coding sibling stay unpaired
		}
		if built[key] == nil {
			m := &GeneModel{
				Base:   cs.Base,
				Gene:   sl.gene,
				CDS:    sl.cds,
				Others: sl.others,
			}
			built[key] = m
			set.Models = append(set.Models, m)
			if m.Gene != nil {
				set.byCharset[m.Gene] = m
			}
			set.byCharset[m.CDS] = m
			for _, o := range m.Others {
				set.byCharset[o] = m
			}
		}
	}

	// Emission order: declaration order, gene immediately before its CDS.
	emitted := make(map[*Charset]bool)
	for _, cs := range charsets {
		if emitted[cs] {
			continue
		}
		m := set.byCharset[cs]
		if m != nil && m.Gene != nil && (cs == m.Gene || cs == m.CDS) {
			set.Ordered = append(set.Ordered, m.Gene, m.CDS)
			emitted[m.Gene] = true
			emitted[m.CDS] = true
			continue
		}
		set.Ordered = append(set.Ordered, cs)
		emitted[cs] = true
	}

	return set, nil
}
