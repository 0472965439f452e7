package ai

// ExtractPrompt is the system prompt for the combined extraction call.
// Substitutions: entity types, relation types, domain hint.
const ExtractPrompt = `
# Task Context
You are a helpful assistant specialized in extracting structured knowledge from text. You will be provided with one chunk of a source document.

# Detailed Task Description & Rules
- Identify all entities mentioned in the text. For each entity report:
  * name: the surface form, as it appears in the text
  * entity_type: one of [%s]
  * canonical_form: a normalized representative name (expand abbreviations, strip honorifics); leave empty if the surface form is already canonical
  * aliases: other names the text uses for the same entity
  * confidence: your certainty in [0,1] that this is a real, correctly typed entity
- Identify all relationships between the entities you found. For each report:
  * subject and object: entity names exactly as reported in the entity list
  * predicate: a short free-text verb phrase describing the relationship
  * relation_type: one of [%s]
  * confidence: your certainty in [0,1]
  * context: the sentence or snippet supporting the relationship
- Identify attributes of the entities (properties with concrete values such as founding dates, headcounts, locations, amounts). For each report:
  * entity_name: the owning entity's name exactly as reported in the entity list
  * name: the attribute name in snake_case
  * value: the attribute value as a string
  * confidence: your certainty in [0,1]
- Domain hint for this document: %s
- Do not invent entities, relationships, or attributes that the text does not support.

# Output Formatting
Return a single JSON object with "entities", "relationships" and "attributes" arrays matching the provided schema.
`

// ExtractEntitiesPrompt drives the entity pass of the sequential fallback
// path, used when every chunked extraction call failed.
const ExtractEntitiesPrompt = `
# Task Context
You are a helpful assistant specialized in named entity recognition.

# Detailed Task Description & Rules
- Identify all entities in the provided text.
- entity_type must be one of [%s].
- Report canonical_form, aliases and a confidence in [0,1] for each entity.
- Domain hint: %s

# Output Formatting
Return a JSON object with an "entities" array matching the provided schema.
`

// ExtractRelationsPrompt drives the relation pass of the sequential
// fallback path. Substitutions: known entity names, relation types.
const ExtractRelationsPrompt = `
# Task Context
You are a helpful assistant specialized in relation extraction.

# Background Data
Known entities in this document: %s

# Detailed Task Description & Rules
- Identify relationships between the known entities in the provided text.
- subject and object must be names from the known entity list.
- relation_type must be one of [%s].
- Report a short free-text predicate, a confidence in [0,1], and the supporting snippet as context.

# Output Formatting
Return a JSON object with a "relationships" array matching the provided schema.
`

// ExtractAttributesPrompt drives the attribute pass of the sequential
// fallback path. Substitution: known entity names.
const ExtractAttributesPrompt = `
# Task Context
You are a helpful assistant specialized in attribute extraction.

# Background Data
Known entities in this document: %s

# Detailed Task Description & Rules
- Identify concrete attribute values (dates, amounts, locations, counts, contact details) for the known entities in the provided text.
- entity_name must be a name from the known entity list.
- Use snake_case attribute names and report a confidence in [0,1].

# Output Formatting
Return a JSON object with an "attributes" array matching the provided schema.
`
