package gemini

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/samirrijal/roomradar/internal/core/domain"
)

const promptHeader = `Bạn là một chuyên gia tư vấn bất động sản thông minh. Hãy phân tích và so sánh các phòng trọ/căn hộ sau đây:`

const promptTask = `Nhiệm vụ của bạn:
1. So sánh tất cả các phòng dựa trên: giá thuê, diện tích, vị trí, tiện nghi.
2. Xếp hạng từ phòng phù hợp nhất tới ít phù hợp nhất.
3. Đưa ra lý do rõ ràng cho mỗi xếp hạng.
4. Đề xuất lựa chọn tốt nhất với lý do chi tiết.`

const promptFormat = `Trả về kết quả theo đúng định dạng JSON sau (KHÔNG thêm markdown code blocks):
{
  "success": true,
  "analysis": {
    "rankings": [
      {
        "id": <room_id>,
        "title": "<room_title>",
        "rank": <1|2|3>,
        "score": <0-100>,
        "priceScore": <0-100>,
        "areaScore": <0-100>,
        "locationScore": <0-100>,
        "amenitiesScore": <0-100>,
        "pros": ["<điểm mạnh 1>", "<điểm mạnh 2>"],
        "cons": ["<điểm yếu 1>", "<điểm yếu 2>"],
        "recommendation": "<nhận xét ngắn gọn>"
      }
    ],
    "bestChoice": {
      "roomId": <best_room_id>,
      "reason": "<lý do chọn phòng này>"
    },
    "comparisonSummary": "<tóm tắt so sánh tổng quan>",
    "tips": ["<mẹo 1>", "<mẹo 2>", "<mẹo 3>"]
  },
  "generatedAt": "<ISO timestamp>"
}`

var priorityLabels = map[string]string{
	"price":     "giá thuê",
	"area":      "diện tích",
	"location":  "vị trí",
	"amenities": "tiện nghi",
}

func buildPrompt(req domain.AnalysisRequest) (string, error) {
	rooms, err := json.MarshalIndent(req.Rooms, "", "  ")
	if err != nil {
		return "", fmt.Errorf("gemini: encode rooms: %w", err)
	}

	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\n")
	b.Write(rooms)
	b.WriteString("\n\n")
	if prefs := preferencesBlock(req.Preferences); prefs != "" {
		b.WriteString(prefs)
		b.WriteString("\n\n")
	}
	b.WriteString(promptTask)
	b.WriteString("\n\n")
	b.WriteString(promptFormat)
	return b.String(), nil
}

func preferencesBlock(p *domain.UserPreferences) string {
	if p == nil {
		return ""
	}
	var lines []string
	if p.Budget != nil {
		lines = append(lines, fmt.Sprintf("- Ngân sách tối đa: %.0f VNĐ/tháng", *p.Budget))
	}
	if p.PreferredArea != nil {
		lines = append(lines, fmt.Sprintf("- Diện tích mong muốn: %.0f m²", *p.PreferredArea))
	}
	if len(p.PriorityFactors) > 0 {
		labels := make([]string, 0, len(p.PriorityFactors))
		for _, f := range p.PriorityFactors {
			if l, ok := priorityLabels[f]; ok {
				labels = append(labels, l)
			}
		}
		if len(labels) > 0 {
			lines = append(lines, "- Ưu tiên: "+strings.Join(labels, ", "))
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "Tiêu chí của người thuê:\n" + strings.Join(lines, "\n")
}

const fallbackReason = "Không thể phân tích"

func parseResponse(text string, now time.Time) *domain.AnalysisResponse {
	cleaned := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(cleaned, "```json"):
		cleaned = cleaned[len("```json"):]
	case strings.HasPrefix(cleaned, "```"):
		cleaned = cleaned[len("```"):]
	}
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var res domain.AnalysisResponse
	if err := json.Unmarshal([]byte(cleaned), &res); err == nil {
		if res.GeneratedAt == "" {
			res.GeneratedAt = now.UTC().Format(time.RFC3339)
		}
		return &res
	}

	return &domain.AnalysisResponse{
		Success: false,
		Analysis: domain.Analysis{
			Rankings:          []domain.RoomAnalysisResult{},
			BestChoice:        domain.BestChoice{RoomID: 0, Reason: fallbackReason},
			ComparisonSummary: text,
			Tips:              []string{},
		},
		GeneratedAt: now.UTC().Format(time.RFC3339),
	}
}
