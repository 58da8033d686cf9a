package models

// Server — внешняя инфраструктура провижининга: адрес API и ключ доступа.
type Server struct {
	ID         int64  `json:"id"`
	OwnerID    string `json:"owner_id"`
	Name       string `json:"name"`
	Endpoint   string `json:"endpoint"`
	Credential string `json:"-"`
}

// CanProvision сообщает, настроен ли на сервере удалённый провижининг.
func (s *Server) CanProvision() bool {
	return s.Endpoint != "" && s.Credential != ""
}

// DummyServer используется для приёма данных сервера из JSON-запроса.
type DummyServer struct {
	Name       string `json:"name" validate:"required"`
	Endpoint   string `json:"endpoint" validate:"omitempty,url"`
	Credential string `json:"credential"`
}
