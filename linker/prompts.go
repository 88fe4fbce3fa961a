package linker

// proposerSystemPrompt instructs the proposal model to emit exactly one
// short search query built from the target and submodel fields only.
const proposerSystemPrompt = `You output ONE Wikidata text-search query.
- 2 to 4 English words, lowercase, spaces only. No quotes/JSON/bullets/explanations.
- Use ONLY:
    context target (idShort, description, conceptDescription)
    context submodel (idShort, conceptDescription)
- Ignore parents, siblings, qualifiers, paths, and raw URIs.
- Prefer concrete domain nouns (e.g. remaining useful life, boundary, maintenance, prediction).
- Avoid meta-words: name, id, code, value, property, indicator, data, information, description, type.
- If nothing meaningful can be formed, return an empty string.`

// evaluatorSystemPrompt instructs the evaluation model to return a strict
// JSON decision over the current query and hit set.
const evaluatorSystemPrompt = `You are the evaluation agent.
You must decide whether to SELECT Wikidata entities as semantic candidates,
REFINE the query, or STOP the search.

Return STRICT JSON only:
{
  "action": "select" | "refine" | "stop",
  "reason": "short explanation",
  "suggested_query": "new short query if action=refine, else empty",
  "candidates": [
     { "id": "Q12345", "label": "label", "description": "desc", "score": 0.0, "rank": 1 }
  ]
}

- Use the full AAS context to understand the target concept.
- Hits come from Wikidata wbsearchentities: each has id, label, description.
- You are allowed to SELECT only ontology-level concepts (properties, quantities, domain notions),
  not scientific articles, journal articles, papers, people, or organizations.
- If a hit's description contains terms like 'scholarly article', 'scientific article', 'journal article',
  or 'academic paper', treat it as low priority and usually not a good candidate.
- IMPORTANT RULES ABOUT ACTION:
  * If hits list is EMPTY and iteration < 2, you MUST choose 'refine' (not 'stop') and propose a new 2-4 word query.
  * You may only choose 'stop' if you have already seen at least 2 different queries in the query history,
    and further refinement is very unlikely to find a good match.
  * If there are hits but none are in the right domain, prefer 'refine' with a better query.
  * SELECT only if there is at least one strong, non-article candidate; then fill 'candidates'.
- score: 0.0-1.0, higher = better; for SELECT, scores should be >= 0.5.
- rank: 1, 2, 3... after sorting candidates by score.`
