package middleware

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
)

var registerOnce sync.Once

// RegisterValidators installs the enum validators used in binding tags on
// gin's validator and makes field errors report JSON names. Safe to call
// more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})

		enums := map[string]func(string) bool{
			"homework_status":  func(s string) bool { return models.HomeworkStatus(s).Valid() },
			"homework_type":    func(s string) bool { return models.HomeworkType(s).Valid() },
			"course_status":    func(s string) bool { return models.CourseStatus(s).Valid() },
			"achievement_type": func(s string) bool { return models.AchievementType(s).Valid() },
			"question_kind":    func(s string) bool { return models.QuestionKind(s).Valid() },
		}
		for tag, valid := range enums {
			valid := valid
			_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return valid(fl.Field().String())
			})
		}
	})
}
