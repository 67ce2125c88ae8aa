package singlepass

// responseSchema is the contract for the single-call answer.
const responseSchema = `{
  "type": "object",
  "required": ["title", "body", "hashtags", "variations"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "body": {"type": "string", "minLength": 1},
    "hashtags": {"type": "array", "items": {"type": "string"}},
    "variations": {
      "type": "array",
      "minItems": 3,
      "maxItems": 3,
      "items": {
        "type": "object",
        "required": ["title", "body", "style"],
        "properties": {
          "title": {"type": "string", "minLength": 1},
          "body": {"type": "string", "minLength": 1},
          "style": {"type": "string", "enum": ["professional", "casual", "promotional"]}
        }
      }
    }
  }
}`
