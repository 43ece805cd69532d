package triage

import (
	"fmt"
	"strings"
)

const defaultStylePrompt = "請用自然、親切的語氣回覆飼主，讓他感到安心與被照顧。請避免每次回覆都重複使用相同的開場安撫語，例如「親愛的飼主」、「辛苦您了」等，以免造成冗長。"

func styleOrDefault(stylePrompt string) string {
	if s := strings.TrimSpace(stylePrompt); s != "" {
		return s
	}
	return defaultStylePrompt
}

// buildExtractionPrompt asks the oracle for at most two candidate diseases,
// an overall severity tier and exactly one follow-up question, as JSON only.
func buildExtractionPrompt(stylePrompt string, transcript []string, petName string) string {
	var b strings.Builder
	b.WriteString("你現在扮演的角色是一位獸醫助理，請完全依照以下角色設定進行回覆：\n")
	b.WriteString(styleOrDefault(stylePrompt))
	b.WriteString("\n\n以下是使用者目前的症狀描述紀錄：\n")
	b.WriteString(strings.Join(transcript, "；"))
	b.WriteString("\n")
	if petName != "" {
		fmt.Fprintf(&b, "寵物的名字是「%s」。\n", petName)
	}
	b.WriteString(`
請執行以下任務：
1. 判斷可能的疾病（最多 2 個），使用標準中文醫學名稱。
2. 評估整體嚴重度（高、中、低）。
3. 提出一個具體追問，幫助了解更精確症狀。

請回傳以下格式的 JSON（僅回傳 JSON，不要有任何額外文字）：
{
  "possibleDiseases": [ { "name": "疾病1" }, { "name": "疾病2" } ],
  "severity": "高" | "中" | "低",
  "followUpQuestion": "請問牠目前有咳嗽嗎？"
}

追問語氣請自然、符合角色風格，使用繁體中文。若合適，可在問題中自然地使用寵物名字。`)
	return strings.TrimSpace(b.String())
}

// buildAdvicePrompt asks for the closing prose advice. It forbids further
// questions and the phrases the product copy disallows.
func buildAdvicePrompt(stylePrompt string, pet PetContext, identified []string, finalSeverity Severity, adviceDigest string) string {
	var b strings.Builder
	b.WriteString("你是一位獸醫助理，請根據以下語氣風格回覆飼主：\n")
	b.WriteString(styleOrDefault(stylePrompt))
	b.WriteString("\n\n請根據以下資訊，給出具體且完整的建議，不要再提出任何追問或問題：\n\n")
	fmt.Fprintf(&b, "寵物資訊：\n- 種類與名字：%s %s\n- 年齡與性別：%d 歲，%s\n- 體重：%g kg\n\n",
		pet.Species, pet.Name, pet.Age, pet.Sex, pet.Weight)
	fmt.Fprintf(&b, "AI 判斷的可能疾病：%s\n", strings.Join(identified, "、"))
	fmt.Fprintf(&b, "整體嚴重度：%s\n", finalSeverity)
	fmt.Fprintf(&b, "建議摘要：%s\n\n", adviceDigest)
	fmt.Fprintf(&b, "請用繁體中文回覆，語氣符合角色風格，內容請具體、口語化，像是對飼主的口頭建議。請用 3～5 句話說明，視情況加入安撫語句並自然地提及 %s。\n\n", pet.Name)
	b.WriteString("請勿提及「回診」、「撥打電話」、「聯絡我們」等語句。若需提醒就醫，請使用「儘速前往動物醫院」或「可再次使用本系統」等方式結尾。")
	return strings.TrimSpace(b.String())
}

// buildCarePrompt asks for exactly three care suggestions as JSON.
func buildCarePrompt(stylePrompt string, pet PetContext, identified []string, finalSeverity Severity, adviceDigest string) string {
	var b strings.Builder
	b.WriteString("你是一位獸醫助理，請根據以下語氣風格回覆飼主：\n")
	b.WriteString(styleOrDefault(stylePrompt))
	b.WriteString("\n請根據以下資訊，不用再和使用者打招呼直接給出三點具體照護建議，也請避免重複過往建議：\n\n")
	fmt.Fprintf(&b, "寵物資訊：\n- 種類與名字：%s %s\n- 年齡與性別：%d 歲，%s\n- 體重：%g kg\n\n",
		pet.Species, pet.Name, pet.Age, pet.Sex, pet.Weight)
	fmt.Fprintf(&b, "可能疾病：%s\n", strings.Join(identified, "、"))
	fmt.Fprintf(&b, "嚴重度：%s\n", finalSeverity)
	fmt.Fprintf(&b, "建議摘要：%s\n\n", adviceDigest)
	b.WriteString(`請回傳以下格式的 JSON（僅回傳 JSON，不要有任何額外文字）：
{
  "suggestions": [
    "建議一",
    "建議二",
    "建議三"
  ]
}`)
	return strings.TrimSpace(b.String())
}

// synthesizeAdvice composes the closing reply from already-known signals
// when the advice oracle returns nothing usable.
func synthesizeAdvice(identified []string, finalSeverity Severity, adviceDigest string) string {
	return fmt.Sprintf("可能的疾病為：%s。\n整體嚴重度：%s。\n建議：%s",
		strings.Join(identified, "、"), finalSeverity, adviceDigest)
}
