package extractor

import (
	"fmt"
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/jdkato/prose/v2"
)

// 停用词表，覆盖常见英文功能词
// 词性过滤已经去掉了大部分虚词，这里兜底处理剩余的高频词
var stopWords = map[string]bool{
	"a": true, "about": true, "above": true, "after": true, "again": true,
	"against": true, "all": true, "am": true, "an": true, "and": true,
	"any": true, "are": true, "as": true, "at": true, "be": true,
	"because": true, "been": true, "before": true, "being": true, "below": true,
	"between": true, "both": true, "but": true, "by": true, "can": true,
	"did": true, "do": true, "does": true, "doing": true, "down": true,
	"during": true, "each": true, "few": true, "for": true, "from": true,
	"further": true, "had": true, "has": true, "have": true, "having": true,
	"he": true, "her": true, "here": true, "hers": true, "herself": true,
	"him": true, "himself": true, "his": true, "how": true, "i": true,
	"if": true, "in": true, "into": true, "is": true, "it": true,
	"its": true, "itself": true, "just": true, "me": true, "more": true,
	"most": true, "my": true, "myself": true, "no": true, "nor": true,
	"not": true, "now": true, "of": true, "off": true, "on": true,
	"once": true, "only": true, "or": true, "other": true, "our": true,
	"ours": true, "ourselves": true, "out": true, "over": true, "own": true,
	"same": true, "she": true, "should": true, "so": true, "some": true,
	"such": true, "than": true, "that": true, "the": true, "their": true,
	"theirs": true, "them": true, "themselves": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "those": true, "through": true,
	"to": true, "too": true, "under": true, "until": true, "up": true,
	"very": true, "was": true, "we": true, "were": true, "what": true,
	"when": true, "where": true, "which": true, "while": true, "who": true,
	"whom": true, "why": true, "will": true, "with": true, "you": true,
	"your": true, "yours": true, "yourself": true, "yourselves": true,
}

// Normalizer 把原始文本归一化为只含实义词词元的关键词串
// 词典资源在构造时一次性加载，之后只读
type Normalizer struct {
	lemmatizer *golem.Lemmatizer
}

// NewNormalizer 创建归一化器，加载英文词形还原词典
func NewNormalizer() (*Normalizer, error) {
	lemmatizer, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("加载词形还原词典失败: %w", err)
	}
	return &Normalizer{lemmatizer: lemmatizer}, nil
}

// keepTag 只保留名词(NN*)、动词(VB*)、形容词(JJ*)，专有名词含在NNP/NNPS内
func keepTag(tag string) bool {
	return strings.HasPrefix(tag, "NN") ||
		strings.HasPrefix(tag, "VB") ||
		strings.HasPrefix(tag, "JJ")
}

// Normalize 归一化文本：
// 小写化 -> 分词与词性标注 -> 去停用词/标点/空白 -> 保留实义词性 ->
// 词形还原 -> 丢弃长度<=2或http前缀的词元 -> 单空格连接
// 输出是词元袋而非完整句子
func (n *Normalizer) Normalize(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	doc, err := prose.NewDocument(strings.ToLower(text),
		prose.WithExtraction(false),
		prose.WithSegmentation(false))
	if err != nil {
		return "", fmt.Errorf("文本分词失败: %w", err)
	}

	keywords := make([]string, 0, 64)
	for _, tok := range doc.Tokens() {
		word := strings.TrimSpace(tok.Text)
		if word == "" || !isAlphanumericWord(word) {
			continue
		}
		if stopWords[word] {
			continue
		}
		if !keepTag(tok.Tag) {
			continue
		}

		lemma := strings.TrimSpace(n.lemmatizer.LemmaLower(word))
		if len(lemma) <= 2 || strings.HasPrefix(lemma, "http") {
			continue
		}
		keywords = append(keywords, lemma)
	}

	return strings.Join(keywords, " "), nil
}

// isAlphanumericWord 过滤纯标点和符号token，允许c++、.net这类技术词中的常见字符
func isAlphanumericWord(word string) bool {
	hasLetterOrDigit := false
	for _, r := range word {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			hasLetterOrDigit = true
		case r == '+' || r == '#' || r == '.' || r == '-' || r == '_' || r == '/' || r == ':':
			// 技术词汇里合法的符号
		default:
			return false
		}
	}
	return hasLetterOrDigit
}
