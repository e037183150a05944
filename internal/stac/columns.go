// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package stac

// TableColumn describes one field of an exported record (STAC table extension).
type TableColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// Adapted from the iSamples core metadata schema 1.0:
// https://raw.githubusercontent.com/isamplesorg/metadata/main/src/schemas/iSamplesSchemaCore1.0.json
var sampleColumns = []TableColumn{
	{
		Name:        "sample_identifier",
		Description: "URI that identifies the physical sample described by this record",
		Type:        "string",
	},
	{
		Name:        "label",
		Description: "a human intelligible string used to identify a thing, i.e. the name to use for the thing; should be unique in the scope of a sample collection or dataset.",
		Type:        "string",
	},
	{
		Name:        "description",
		Description: "Free text description of the subject of a triple.",
		Type:        "string",
	},
	{
		Name:        "alternate_identifiers",
		Description: "one or more identifiers used to identify the sample in other contexts. In this context, the identifier property and scheme_name should be required.",
		Type:        "array",
	},
	{
		Name:        "produced_by",
		Description: "object that documents the sampling event--who, where, when the specimen was obtained",
		Type:        "string",
	},
	{
		Name:        "sampling_purpose",
		Description: "term to specify why a sample was collection.",
		Type:        "string",
	},
	{
		Name:        "has_context_category",
		Description: "Top level context, based on the kind of feature sampled. Specific identification of the sampled feature of interest is done through the SamplingEvent/Feature of Interest property. At least one value is an instance of skos:Concept from the iSamples sampledfeaturevocabulary.",
		Type:        "array",
	},
	{
		Name:        "has_material_category",
		Description: "The kind of material that constitutes the sample.  At least one value is an instance of skos:Concept from the iSamples MaterialTypeVocabulary; extension vocabularies can be used for more precise categorization.",
		Type:        "array",
	},
	{
		Name:        "has_specimen_category",
		Description: "The kind of object the specimen is. At least one value is an instance of skos:Concept from the iSamples SpecimenTypeVocabulary; extension vocabularies can be used for more precise categorization.",
		Type:        "array",
	},
	{
		Name:        "keywords",
		Description: "free text terms or formal categories associate with sample to support discovery. As in DataCite metadata, each keyword is a separate element. Multiple keywords should NOT be included as a comma-delimited list.",
		Type:        "array",
	},
	{
		Name:        "related_resource",
		Description: "link to related resource with relationship property to indicate nature of connection. Target should be identifier for a resource.",
		Type:        "array",
	},
	{
		Name:        "complies_with",
		Description: "a list of policies, recommendations, best practices (etc.) that have been followed in the collection and curation of the sample.",
		Type:        "array",
	},
	{
		Name:        "dc_rights",
		Description: "a statement about various property rights associated with the resource, including intellectual property rights. Recommended practice is to refer to a rights statement with a URI. If this is not possible or feasible, a literal value (name, label, or short text) may be provided.",
		Type:        "string",
	},
	{
		Name:        "curation",
		Description: "Information about the current storage of sample, access to sample, and events in curation history. Curation as used here starts when the sample is removed from its original context, and might include various processing steps for preservation.  Processing related to analysis preparation such as crushing, dissolution, evaporation, filtering are considered part of the sampling method for the derived child sample.",
		Type:        "string",
	},
	{
		Name:        "registrant",
		Description: "identification of the agent that registered the sample, with contact information. Should include person name and affiliation, or position name and affiliation, or just organization name. e-mail address is preferred contact information.",
		Type:        "string",
	},
}

// SampleColumns returns a copy of the fixed column schema of exported records.
func SampleColumns() []TableColumn {
	out := make([]TableColumn, len(sampleColumns))
	copy(out, sampleColumns)
	return out
}
