package schema

import (
	"slices"

	"github.com/gnames/genomcat/pkg/ent/model"
)

// Entity names.
const (
	Genome    = "genome"
	Taxonomy  = "taxonomy"
	Protein   = "protein"
	TRNA      = "trna"
	SMR       = "smr"
	SignalP   = "signalp"
	VF        = "vf"
	ARG       = "arg"
	TMH       = "tmh"
	Helix     = "helix"
	CRISPRCas = "crisprcas"
	CRISPR    = "crispr"
	ACR       = "acr"
)

var (
	all      = model.Taxa
	cellular = []model.Taxon{model.Bacteria, model.Archaea, model.Fungi}
	prok     = []model.Taxon{model.Bacteria, model.Archaea}
)

// entityDef is a parameterized definition of an entity. Taxon-specific
// differences are handled inside columns.
type entityDef struct {
	name    string
	taxa    []model.Taxon
	columns func(model.Taxon) []Column
	family  func(*Family)
}

var entityDefs = []entityDef{
	{name: Genome, taxa: all, columns: genomeColumns, family: genomeFamily},
	{name: Taxonomy, taxa: all, columns: taxonomyColumns,
		family: taxonomyFamily},
	{name: Protein, taxa: all, columns: proteinColumns, family: proteinFamily},
	{name: TRNA, taxa: all, columns: trnaColumns, family: trnaFamily},
	{name: SMR, taxa: cellular, columns: smrColumns, family: smrFamily},
	{name: SignalP, taxa: cellular, columns: signalpColumns,
		family: signalpFamily},
	{name: VF, taxa: all, columns: vfColumns, family: vfFamily},
	{name: ARG, taxa: all, columns: argColumns, family: argFamily},
	{name: TMH, taxa: all, columns: tmhColumns, family: tmhFamily},
	{name: CRISPRCas, taxa: prok, columns: crisprcasColumns,
		family: crisprcasFamily},
	{name: ACR, taxa: []model.Taxon{model.Bacteria, model.Archaea,
		model.Viruses}, columns: acrColumns, family: acrFamily},
}

func (d entityDef) supports(t model.Taxon) bool {
	return slices.Contains(d.taxa, t)
}

func ident(name string) Column {
	return Column{Name: name, Kind: Ident}
}

func text(name string) Column {
	return Column{Name: name, Kind: Text}
}

func integer(name string) Column {
	return Column{Name: name, Kind: Int}
}

func float(name string) Column {
	return Column{Name: name, Kind: Float}
}

func req(c Column) Column {
	c.Required = true
	return c
}

func from(c Column, source string) Column {
	c.Source = source
	return c
}

func qualified(c Column) Column {
	c.Qualified = true
	return c
}

func set(name, sep string) Column {
	return Column{Name: name, Kind: Set, Sep: sep}
}

// location returns the common leading columns of per-protein annotations.
func location(protein bool) []Column {
	res := []Column{req(ident(UIDField)), req(ident("contig_id"))}
	if protein {
		res = append(res, req(ident("protein_id")))
	}
	return res
}

func genomeColumns(t model.Taxon) []Column {
	res := []Column{req(ident(UIDField))}
	if t == model.Viruses {
		res = append(res,
			ident("genbank_accession"),
			ident("refseq_accession"),
		)
	} else {
		res = append(res, from(set("accessions", ","), "accession"))
	}
	res = append(res,
		req(text("organism_name")),
		integer("taxonomic_id"),
		Column{
			Name: "species", Kind: Text,
			DeriveFrom: "organism_name", Derive: SpeciesOf,
		},
		integer("total_sequence_length"),
		float("gc_content"),
		text("assembly_level"),
		integer("total_chromosomes"),
		integer("contig_n50"),
		integer("scaffold_n50"),
	)
	if t == model.Bacteria || t == model.Archaea {
		res = append(res, float("completeness"), float("contamination"))
	}
	return res
}

func genomeFamily(f *Family) {
	f.Search = []string{UIDField, "organism_name", "species"}
	if f.HasColumn("accessions") {
		f.Search = append(f.Search, "accessions")
	} else {
		f.Search = append(f.Search, "genbank_accession", "refseq_accession")
	}
	f.Filter = []string{"assembly_level", "species"}
	f.Sort = []string{UIDField, "organism_name", "total_sequence_length",
		"gc_content", "contig_n50", "scaffold_n50"}
	if f.HasColumn("completeness") {
		f.Sort = append(f.Sort, "completeness", "contamination")
	}
	f.Downloads = []string{KindCSV, KindMeta, KindFASTA, KindGBK, KindGFF3}
}

func taxonomyColumns(t model.Taxon) []Column {
	res := []Column{req(ident(UIDField))}
	switch t {
	case model.Viruses:
		res = append(res, text("acellular_root"), text("realm"))
	case model.Fungi:
		res = append(res, text("kingdom"))
	default:
		res = append(res, text("domain"))
	}
	return append(res,
		text("phylum"),
		from(text("class_name"), "class"),
		from(text("order_name"), "order"),
		text("family"),
		text("genus"),
		text("species"),
	)
}

func taxonomyFamily(f *Family) {
	f.Search = []string{UIDField, "genus", "species"}
	for _, c := range f.Columns[1:] {
		f.Filter = append(f.Filter, c.Name)
	}
	f.Sort = []string{UIDField, "genus", "species"}
	f.Downloads = []string{KindCSV}
}

func proteinColumns(model.Taxon) []Column {
	return append(location(true),
		req(from(integer("start_pos"), "start")),
		req(from(integer("end_pos"), "end")),
		req(Column{Name: "strand", Kind: Strand}),
		integer("phase"),
		text("product"),
		set("cog_category", ","),
		text("go_terms"),
		text("ec_number"),
		text("kegg"),
		text("brite"),
		text("cazy"),
		text("pfam"),
		text("sequence"),
	)
}

func proteinFamily(f *Family) {
	f.Search = []string{UIDField, "contig_id", "protein_id", "product",
		"cog_category"}
	f.Filter = []string{"strand", "cog_category"}
	f.Sort = []string{UIDField, "contig_id", "start_pos", "end_pos"}
	f.Downloads = []string{KindCSV, KindFASTA}
	f.SidecarKind = Protein
}

func trnaColumns(model.Taxon) []Column {
	return append(location(false),
		req(ident("trna_id")),
		req(from(integer("start_pos"), "start")),
		req(from(integer("end_pos"), "end")),
		req(qualified(text("trna_type"))),
		Column{Name: "strand", Kind: Strand},
		integer("length"),
		text("sequence"),
	)
}

func trnaFamily(f *Family) {
	f.Search = []string{UIDField, "contig_id", "trna_id"}
	f.Filter = []string{"trna_type", "strand"}
	f.Sort = []string{UIDField, "contig_id", "start_pos", "length"}
	f.Downloads = []string{KindCSV}
}

func smrColumns(model.Taxon) []Column {
	return append(location(false),
		req(from(integer("start_pos"), "start")),
		req(from(integer("end_pos"), "end")),
		text("source"),
		req(text("region")),
		set("types", ","),
		text("most_similar_cluster"),
		float("similarity"),
	)
}

func smrFamily(f *Family) {
	f.Search = []string{UIDField, "contig_id", "region", "types"}
	f.Filter = []string{"source", "types"}
	f.Sort = []string{UIDField, "contig_id", "start_pos", "similarity"}
	f.Downloads = []string{KindCSV}
}

func signalpColumns(model.Taxon) []Column {
	return append(location(true),
		req(text("prediction")),
		float("other_prob"),
		float("sp_prob"),
		float("lipo_prob"),
		float("tat_prob"),
		float("tatlipo_prob"),
		float("pilin_prob"),
		text("cs_position"),
		float("cs_probability"),
	)
}

func signalpFamily(f *Family) {
	f.Search = []string{UIDField, "contig_id", "protein_id"}
	f.Filter = []string{"prediction"}
	f.Sort = []string{UIDField, "protein_id", "sp_prob", "cs_probability"}
	f.Downloads = []string{KindCSV}
}

func vfColumns(t model.Taxon) []Column {
	res := append(location(true),
		req(ident("vfdb_id")),
		ident("vf_id"),
		float("identity"),
		float("evalue"),
		text("gene_name"),
		text("organism"),
		text("taxonomy"),
	)
	if t == model.Viruses {
		return append(res,
			text("vf_category"),
			text("characteristics"),
			text("structure"),
			text("function"),
			text("mechanism"),
		)
	}
	return append(res,
		text("disease_host"),
		text("disease"),
		text("disease_key"),
	)
}

func vfFamily(f *Family) {
	f.Search = []string{UIDField, "protein_id", "vf_id", "gene_name"}
	if f.HasColumn("vf_category") {
		f.Filter = []string{"vf_category"}
	} else {
		f.Filter = []string{"disease_host", "disease_key"}
	}
	f.Sort = []string{UIDField, "identity", "evalue"}
	f.Downloads = []string{KindCSV}
}

func argColumns(model.Taxon) []Column {
	return append(location(true),
		text("cut_off"),
		req(text("best_hit_aro")),
		float("best_identities"),
		integer("aro"),
		set("drug_class", ";"),
		text("resistance_mechanism"),
		text("amr_gene_family"),
		text("antibiotic"),
		text("snps"),
	)
}

func argFamily(f *Family) {
	f.Search = []string{UIDField, "protein_id", "best_hit_aro", "drug_class"}
	f.Filter = []string{"cut_off", "drug_class", "resistance_mechanism"}
	f.Sort = []string{UIDField, "best_identities", "aro"}
	f.Downloads = []string{KindCSV}
	f.SidecarKind = ARG
}

func tmhColumns(model.Taxon) []Column {
	return append(location(true),
		integer("length"),
		integer("predicted_tmh_count"),
		float("expected_aa_in_tmh"),
		float("expected_first60"),
		float("prob_n_in"),
	)
}

func tmhFamily(f *Family) {
	f.Search = []string{UIDField, "contig_id", "protein_id"}
	f.Filter = []string{"predicted_tmh_count"}
	f.Sort = []string{UIDField, "predicted_tmh_count", "length"}
	f.Downloads = []string{KindCSV}
	f.DedupKey = []string{UIDField, "contig_id", "protein_id"}
	f.SidecarKind = TMH
	f.ChildField = "helices"
	f.Child = &Family{
		Entity: Helix,
		Columns: []Column{
			req(from(text("position"), "helix_position")),
			req(from(integer("start_pos"), "helix_start")),
			req(from(integer("end_pos"), "helix_end")),
		},
		Filter:    []string{"position"},
		Sort:      []string{"start_pos"},
		Downloads: []string{KindCSV},
	}
}

func crisprcasColumns(model.Taxon) []Column {
	return append(location(false),
		req(ident("cas_id")),
		from(integer("start_pos"), "cas_start"),
		from(integer("end_pos"), "cas_end"),
		from(set("subtypes", "or"), "cas_subtype"),
		text("consensus_prediction"),
		Column{Name: "cas_genes", Kind: JSON},
	)
}

func crisprcasFamily(f *Family) {
	f.Search = []string{UIDField, "contig_id", "cas_id", "subtypes"}
	f.Filter = []string{"subtypes", "consensus_prediction"}
	f.Sort = []string{UIDField, "contig_id", "start_pos"}
	f.Downloads = []string{KindCSV}
	f.DedupKey = []string{UIDField, "contig_id", "cas_id"}
	f.ChildField = "crisprs"
	f.Child = &Family{
		Entity: CRISPR,
		Columns: []Column{
			req(ident("crispr_id")),
			from(integer("start_pos"), "crispr_start"),
			from(integer("end_pos"), "crispr_end"),
			from(text("subtype"), "crispr_subtype"),
			text("consensus_repeat"),
		},
		Search:    []string{"crispr_id"},
		Filter:    []string{"subtype"},
		Sort:      []string{"start_pos"},
		Downloads: []string{KindCSV},
	}
}

func acrColumns(model.Taxon) []Column {
	return append(location(true),
		from(integer("start_pos"), "start"),
		from(integer("end_pos"), "end"),
		Column{Name: "strand", Kind: Strand},
		req(text("classification")),
		text("acr_aca"),
		text("mge"),
		text("self_target_within_5kb"),
		text("self_target_outside_5kb"),
	)
}

func acrFamily(f *Family) {
	f.Search = []string{UIDField, "contig_id", "protein_id"}
	f.Filter = []string{"classification", "acr_aca", "strand"}
	f.Sort = []string{UIDField, "start_pos"}
	f.Downloads = []string{KindCSV}
}
