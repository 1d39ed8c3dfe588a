package prompt

const caseStudyTemplate = `
### Objective

You are an AI designed to generate case study-based multiple-choice questions (MCQs) from the given context.

### Steps

1. **Comprehend the Content**

   - Carefully read and understand the provided context.
   - Identify key concepts, important details, and overall context.

2. **Generate Case Study-Based MCQs**

   - Create {{.num_case_studies}} scenarios or case studies based on the content.
   - Ensure each case study is relevant and logically derived from the given material.

3. **Formulate Questions**

   - Develop exactly {{.questions_per_case}} multiple-choice questions for each case study.
   - Each question must have exactly 4 options: one correct answer and three plausible distractors.
   - The "correct" field must repeat the text of the correct option exactly.

4. **Maintain Quality and Difficulty**

   - Ensure questions vary in difficulty, including some that test basic understanding and others that challenge deeper comprehension.
   - Questions should test application, analysis, and evaluation based on the case study.
   - Do not copy questions that already appear in the context.

### Output Format

Generate the scenarios, questions, and options in JSON format with the following structure:

{{.format_instructions}}

Context:
{{.context}}
`

const flatTemplate = `
### Objective

You are an AI designed to generate multiple-choice questions (MCQs) from the given context.

### Steps

1. **Comprehend the Content**

   - Carefully read and understand the provided context.
   - Identify key concepts, important details, and overall context.

2. **Formulate Questions**

   - Generate exactly {{.num_questions}} multiple-choice questions covering the main ideas of the context.
   - Each question must have exactly 4 options: one correct answer and three plausible distractors.
   - The "correct" field must repeat the text of the correct option exactly.

3. **Maintain Quality and Difficulty**

   - Mix easy, medium and hard questions.
   - Do not repeat a question, and do not copy questions that already appear in the context.

### Output Format

Return only JSON with the following structure:

{{.format_instructions}}

Context:
{{.context}}
`
