package seed

// defaultYAML is the built-in fixture used when no seed directory is
// configured: the four core BECE subjects, the mathematics topic set and a
// small bank of sample questions and predictions.
const defaultYAML = `
subjects:
  - name: Mathematics
    description: Core mathematics for BECE candidates
    icon: "📐"
    color: blue
    active: true
  - name: English Language
    description: Grammar, comprehension and composition
    icon: "📚"
    color: green
    active: true
  - name: Integrated Science
    description: Physics, chemistry, biology and agriculture basics
    icon: "🔬"
    color: purple
    active: true
  - name: Social Studies
    description: Governance, environment and economic development
    icon: "🌍"
    color: orange
    active: true

topics:
  - name: Algebraic Expressions
    subjectId: mathematics
    description: Simplifying, expanding and factorizing expressions
    difficulty: Intermediate
    estimatedHours: 6
    active: true
    isPredictionTopic: true
  - name: Linear Equations and Inequalities
    subjectId: mathematics
    description: Solving equations and inequalities in one variable
    difficulty: Intermediate
    estimatedHours: 5
    active: true
    isPredictionTopic: true
  - name: Geometry and Mensuration
    subjectId: mathematics
    description: Angles, polygons, area, perimeter and volume
    difficulty: Advanced
    estimatedHours: 8
    active: true
    isPredictionTopic: false
  - name: Statistics and Probability
    subjectId: mathematics
    description: Data handling, averages and simple probability
    difficulty: Beginner
    estimatedHours: 4
    active: true
    isPredictionTopic: true
  - name: Fractions and Decimals
    subjectId: mathematics
    description: Operations on fractions, decimals and percentages
    difficulty: Beginner
    estimatedHours: 4
    active: true
    isPredictionTopic: false
  - name: Ratio and Proportion
    subjectId: mathematics
    description: Ratios, rates, scales and proportional reasoning
    difficulty: Intermediate
    estimatedHours: 3
    active: true
    isPredictionTopic: false
  - name: Comprehension and Summary
    subjectId: english-language
    description: Reading comprehension and summary writing
    difficulty: Intermediate
    estimatedHours: 6
    active: true
    isPredictionTopic: true

questions:
  - prompt: "Simplify: 3x + 2x - 4"
    topicId: algebraic-expressions
    subjectId: mathematics
    type: multiple-choice
    difficulty: Beginner
    options: ["5x - 4", "x - 4", "5x + 4", "6x"]
    correctAnswer: "5x - 4"
    explanation: Collect like terms; 3x + 2x = 5x, the constant stays.
    timeSeconds: 60
    points: 1
    published: true
    active: true
    solutionAccess: after-attempt
    tags: [algebra, simplification]
  - prompt: "Solve for x: 2x - 6 = 10"
    topicId: linear-equations-and-inequalities
    subjectId: mathematics
    type: multiple-choice
    difficulty: Beginner
    options: ["2", "8", "10", "16"]
    correctAnswer: "8"
    explanation: Add 6 to both sides, then divide by 2.
    timeSeconds: 60
    points: 1
    published: true
    active: true
    solutionAccess: after-attempt
    tags: [equations]
  - prompt: A rectangle is 8 cm long and 5 cm wide. Find its area.
    topicId: geometry-and-mensuration
    subjectId: mathematics
    type: short-answer
    difficulty: Beginner
    correctAnswer: 40 cm²
    explanation: Area of a rectangle is length times width.
    timeSeconds: 90
    points: 2
    published: true
    active: true
    solutionAccess: after-attempt
    tags: [mensuration]
  - prompt: The mean of 4, 7, 9 and 12 is
    topicId: statistics-and-probability
    subjectId: mathematics
    type: multiple-choice
    difficulty: Beginner
    options: ["7", "8", "9", "32"]
    correctAnswer: "8"
    explanation: Sum is 32; divide by the 4 values.
    timeSeconds: 60
    points: 1
    published: true
    active: true
    solutionAccess: immediate
    tags: [statistics, mean]
  - prompt: Express 0.75 as a fraction in its lowest terms.
    topicId: fractions-and-decimals
    subjectId: mathematics
    type: short-answer
    difficulty: Beginner
    correctAnswer: 3/4
    explanation: 75/100 reduces by 25.
    timeSeconds: 60
    points: 1
    published: true
    active: true
    solutionAccess: after-attempt
    tags: [fractions]
  - prompt: Share GH₵120 between Ama and Kofi in the ratio 3:2. How much does Ama get?
    topicId: ratio-and-proportion
    subjectId: mathematics
    type: short-answer
    difficulty: Intermediate
    correctAnswer: GH₵72
    explanation: Ama takes 3 of 5 equal parts of 120.
    timeSeconds: 120
    points: 2
    published: true
    active: true
    solutionAccess: after-attempt
    tags: [ratio]

predictions:
  - title: Algebra is highly likely this year
    description: Algebraic expressions have appeared in every paper since 2018.
    subjectId: mathematics
    topicIds: [algebraic-expressions, linear-equations-and-inequalities]
    difficulty: Intermediate
    estimatedScore: 12
    confidence: 85
    probability: 90
    priority: High
    estimatedQuestions: 4
    active: true
  - title: Statistics expected in section A
    description: Data handling questions favour the objective section.
    subjectId: mathematics
    topicIds: [statistics-and-probability]
    difficulty: Beginner
    estimatedScore: 6
    confidence: 70
    probability: 75
    priority: Medium
    estimatedQuestions: 2
    active: true
`
