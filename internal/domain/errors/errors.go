package errors

import "errors"

var (
	ErrUserNotFound       = errors.New("пользователь не найден")
	ErrTaskNotFound       = errors.New("задача не найдена")
	ErrInvalidCredentials = errors.New("неверные учетные данные")
	ErrEmailTaken         = errors.New("пользователь с таким email уже существует")
	ErrForbidden          = errors.New("доступ запрещён")
	ErrUnauthorized       = errors.New("нет доступа")
	ErrInvalidToken       = errors.New("недействительный токен")
	ErrWrongTaskStatus    = errors.New("недопустимый переход статуса задачи")
	ErrValidationFailed   = errors.New("ошибка валидации")
	ErrInternalServer     = errors.New("внутренняя ошибка сервера")
	ErrBadRequest         = errors.New("неверный запрос")

	ErrInvalidName        = errors.New("некорректное имя пользователя")
	ErrInvalidEmail       = errors.New("некорректный email")
	ErrInvalidPassword    = errors.New("некорректный пароль")
	ErrInvalidStatus      = errors.New("недопустимый статус задачи")
	ErrInvalidTitle       = errors.New("некорректный заголовок задачи")
	ErrInvalidDescription = errors.New("некорректное описание задачи")
	ErrInvalidLabel       = errors.New("некорректное имя метки")

	ErrInvalidGzipRequest    = errors.New("некорректное gzip-тело запроса")
	ErrGzipCompressionFailed = errors.New("ошибка сжатия ответа")

	ErrConfigFileReadFailed = errors.New("не удалось прочитать файл конфигурации")
	ErrConfigParseFailed    = errors.New("не удалось разобрать файл конфигурации")
	ErrConfigInvalidFormat  = errors.New("некорректное значение конфигурации")
)
