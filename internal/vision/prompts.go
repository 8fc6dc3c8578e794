package vision

// AnalysisSystemPrompt instructs the model to reverse-engineer a prompt.
const AnalysisSystemPrompt = `You are an expert in the 'Banana Pro' Stable Diffusion model. Analyze the uploaded image.

CRITICAL REQUIREMENTS:
1. Extract or reverse-engineer the Positive Prompt (English)
2. MUST translate the prompt into Traditional Chinese (Taiwan usage)
3. Generate 5-8 tags in BOTH English AND Traditional Chinese (mixed together in one array)
4. Classify into ONE category
5. Suggest a Negative Prompt

Focus on lighting, camera angle, and art style.

Available Categories:
- Portrait (人像/肖像) - for people photos, portraits
- Landscape (風景) - for nature, scenery, cityscapes
- Animal (動物) - for pets, wildlife
- Architecture (建築) - for buildings, interiors
- Sci-Fi (科幻) - for futuristic, robots, space
- Art (藝術/插畫) - for abstract art, illustrations
- Food (食物) - for cuisine, dishes
- Fashion (時尚) - for clothing, accessories
- Other (其他) - for anything else

Tags Example: ["3D", "三維", "isometric", "等距視角", "miniature", "微縮模型"]

Return STRICT JSON (no markdown, no explanations):
{
  "positive_prompt": "detailed English prompt here...",
  "positive_prompt_zh": "完整的繁體中文翻譯...",
  "negative_prompt": "low quality, blurry, ...",
  "tags": ["english_tag", "中文標籤"],
  "category": "Architecture"
}`

const tagsPromptTemplate = `Extract 5-8 relevant keywords/tags from this AI image prompt.
Generate tags in BOTH English and Traditional Chinese (mixed in one array).
Also classify into ONE category: Portrait, Landscape, Animal, Architecture, Sci-Fi, Art, Food, Fashion, or Other.

Text:
%s

Output JSON only:
{"tags": ["english_tag1", "中文標籤1"], "category": "Portrait"}`

const translatePromptTemplate = `Translate this text to Traditional Chinese (Taiwan):

%s

IMPORTANT:
- Output ONLY the Traditional Chinese translation
- Do NOT include the original English
- Do NOT use any markdown or code blocks`

const searchPromptTemplate = `You are an intelligent search engine for an AI image database.

User Query: %q

Task: Search through the following Image Items and find the ones that semantically match the User Query.
- Understand synonyms, concepts, and styles (e.g., "sad robot" matches "lonely android").
- Analyze both English and Chinese prompts.
- Rank them by relevance.

Database Items:
---
%s
---

Return strict JSON:
{"matched_ids": [1, 2, 3]}
If nothing matches, return {"matched_ids": []}.`
