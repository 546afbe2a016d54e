package parser

// structuredQuerySchema constrains what the language model is allowed to hand
// back. Anything outside it is rejected before the query reaches retrieval.
const structuredQuerySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "industry": { "type": "string" },
    "location": { "type": "string" },
    "ticketSize": {
      "type": ["object", "null"],
      "properties": {
        "min": { "type": ["number", "null"], "minimum": 0 },
        "max": { "type": ["number", "null"], "minimum": 0 }
      },
      "additionalProperties": false
    },
    "sourceProject": { "type": "string" },
    "newProject": { "type": "string" },
    "requirements": {
      "type": "array",
      "items": { "type": "string" }
    },
    "companyStage": { "type": "string" },
    "investorType": { "type": "string" },
    "timeframe": { "type": "string" }
  },
  "additionalProperties": false
}`
