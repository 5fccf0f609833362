// Package jobs 觸發背景 AI 工作並把結果寫回文件
package jobs

import "strings"

// Stage 串流內容出現特定標記時回報的進度
type Stage struct {
	Progress int
	Message  string
	// Markers 任一字串出現即視為到達；空值代表收到任何資料
	Markers []string
}

// GroceryStages 採買清單生成的進度估計，依分類在 JSON 中出現的順序
var GroceryStages = []Stage{
	{Progress: 10, Message: "Reading your recipes"},
	{Progress: 30, Message: "Sorting produce", Markers: []string{`"Produce"`}},
	{Progress: 50, Message: "Adding meat", Markers: []string{`"Meat"`}},
	{Progress: 70, Message: "Adding dairy", Markers: []string{`"Dairy"`}},
	{Progress: 85, Message: "Finishing pantry staples", Markers: []string{`"Pantry"`, `"Spices"`, `"Other"`}},
}

// StageScanner 累積串流內容並回報新到達的階段
// 每個階段只回報一次，回報的進度只增不減
type StageScanner struct {
	stages []Stage
	fired  []bool
	last   int
	text   strings.Builder
	// overlap 每次回看的舊內容長度，讓跨段的標記仍能被找到
	overlap int
}

// NewStageScanner 以給定階段創建掃描器（階段需依進度遞增排列）
func NewStageScanner(stages []Stage) *StageScanner {
	longest := 0
	for _, st := range stages {
		for _, m := range st.Markers {
			longest = max(longest, len(m))
		}
	}
	return &StageScanner{
		stages:  stages,
		fired:   make([]bool, len(stages)),
		overlap: max(longest-1, 0),
	}
}

// Feed 加入一段新資料，回傳本次新到達的階段
func (s *StageScanner) Feed(chunk []byte) []Stage {
	if len(chunk) == 0 {
		return nil
	}
	// 只掃描新資料與前一段的尾巴
	from := max(s.text.Len()-s.overlap, 0)
	s.text.Write(chunk)
	text := s.text.String()[from:]

	var reached []Stage
	for i, st := range s.stages {
		if s.fired[i] || !matches(text, st.Markers) {
			continue
		}
		s.fired[i] = true
		if st.Progress <= s.last {
			continue
		}
		s.last = st.Progress
		reached = append(reached, st)
	}
	return reached
}

// Text 目前累積的全部內容
func (s *StageScanner) Text() string {
	return s.text.String()
}

// Progress 最後回報的進度
func (s *StageScanner) Progress() int {
	return s.last
}

func matches(text string, markers []string) bool {
	if len(markers) == 0 {
		return text != ""
	}
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
