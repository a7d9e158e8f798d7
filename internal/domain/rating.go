package domain

import "math"

// Rating вычисляет рейтинг произведения: среднее арифметическое оценок,
// округленное до двух знаков. Возвращает nil, если отзывов нет - в JSON
// это поле сериализуется как null.
func Rating(scores []int) *float64 {
	if len(scores) == 0 {
		return nil
	}
	var sum int
	for _, s := range scores {
		sum += s
	}
	avg := math.Round(float64(sum)/float64(len(scores))*100) / 100
	return &avg
}
