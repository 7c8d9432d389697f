package skills

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"voice-assistant/internal/memory"
	"voice-assistant/internal/weather"
)

type WeatherSkill struct {
	Base
	provider weather.Provider
	home     string
}

// NewWeather answers for the city named in the utterance, else home.
func NewWeather(p weather.Provider, home string) *WeatherSkill {
	return &WeatherSkill{
		Base: NewBase(NameWeather,
			"погода", "погоду", "погоде", "температура", "градус", "прогноз погоды"),
		provider: p,
		home:     home,
	}
}

func (s *WeatherSkill) Execute(ctx context.Context, utterance string, _ memory.Memory) (string, error) {
	city := weather.CityFromText(utterance, s.home)
	rep, err := s.provider.Current(ctx, city)
	switch {
	case errors.Is(err, weather.ErrUnauthorized):
		return "Проблема с подключением к погодному сервису. Проверьте API ключ.", nil
	case errors.Is(err, weather.ErrUnknownCity):
		return fmt.Sprintf("Город %s не настроен в системе", city), nil
	case err != nil:
		return "", fmt.Errorf("weather for %s: %w", city, err)
	}

	lower := strings.ToLower(utterance)
	switch {
	case strings.Contains(lower, "завтра"):
		return fmt.Sprintf("Сейчас: %s На завтра ожидается похожая погода.", rep), nil
	case strings.Contains(lower, "прогноз"):
		return "Прогноз на сегодня: " + rep.String(), nil
	default:
		return rep.String(), nil
	}
}
