package types

// EducationEntry 从简历中按行提取的教育经历条目
// 三个字段中至少有一个非空，全为空的条目不会被创建
type EducationEntry struct {
	Degree      string `json:"degree,omitempty"`      // 学位关键词，如 "Master"、"B.S."
	Institution string `json:"institution,omitempty"` // 院校名称，如 "Stanford University"
	Year        string `json:"year,omitempty"`        // 4位年份，范围1900-2099
}

// IsEmpty 判断条目是否全为空（全为空的条目不应存在）
func (e EducationEntry) IsEmpty() bool {
	return e.Degree == "" && e.Institution == "" && e.Year == ""
}

// ExtractedProfile 一次简历提交中提取出的结构化画像
// 每次提交独立生成，生成后不再修改
type ExtractedProfile struct {
	Skills     []string         `json:"skills"`     // 命中技能词表的技能，已排序去重
	Education  []EducationEntry `json:"education"`  // 按行顺序的教育条目
	Experience []string         `json:"experience"` // 包含经历关键词的原始行
	Locations  []string         `json:"locations"`  // 按首次出现顺序的大写词序列
}

// MatchResult 简历与岗位的匹配结果
type MatchResult struct {
	// 匹配分数，含地点加成后不超过1.0
	Score float64 `json:"score"`

	// 简历地点是否命中岗位地点
	LocationMatch bool `json:"location_match"`
}

// QuizQuestion 一道生成的选择题，生成后不可变
type QuizQuestion struct {
	Question string            `json:"question"`
	Options  map[string]string `json:"options"` // 恰好4个选项，键为A-D
	Answer   string            `json:"answer"`  // 正确选项的键，A-D之一
}

// AnswerRecord 一次作答记录，按作答顺序追加
type AnswerRecord struct {
	User    string `json:"user"`    // 提交的选项字母
	Correct bool   `json:"correct"` // 是否答对
}

// QuizProgress 答题中的非终态响应
type QuizProgress struct {
	Feedback string `json:"feedback"`
	Score    int    `json:"score"`
	Finished bool   `json:"finished"`
}

// QuizResult 第五题作答后的终态响应
type QuizResult struct {
	Feedback      string `json:"feedback"`
	Score         int    `json:"score"`
	Finished      bool   `json:"finished"`
	Passed        bool   `json:"passed"`
	ResultMessage string `json:"result_message"`
}

// QuizResultsView 进行中会话的实时成绩视图
// 只读快照，终态会话被删除后不再可查
type QuizResultsView struct {
	TotalQuestions int            `json:"total_questions"` // 已生成的题目数
	CorrectAnswers int            `json:"correct_answers"` // 答对的题目数
	Score          int            `json:"score"`
	Details        []AnswerRecord `json:"details"` // 按作答顺序的记录
}

// QuestionView 返回给答题方的题目视图，不含正确答案
type QuestionView struct {
	Question string            `json:"question"`
	Options  map[string]string `json:"options"`
	QNumber  int               `json:"q_number"` // 当前是第几题，从1开始
	Finished bool              `json:"finished"`
}
