package mail

import (
	"fmt"

	"github.com/Yolouth/rezerwacja-konsultacji/internal/domain"
)

// Message texts are in Polish, matching the business's client base.

func ClientConfirmation(b domain.Booking) (subject, body string) {
	subject = "Potwierdzenie rezerwacji treningu"
	body = fmt.Sprintf(
		"Cześć %s!\n\nTwoja rezerwacja została przyjęta.\n\nData: %s\nGodzina: %s\n\nDo zobaczenia!",
		b.ClientName, b.TrainingDate, b.TrainingTime,
	)
	return subject, body
}

func TrainerNotification(b domain.Booking) (subject, body string) {
	subject = fmt.Sprintf("Nowa rezerwacja: %s %s", b.TrainingDate, b.TrainingTime)
	phone := b.Phone
	if phone == "" {
		phone = "nie podano"
	}
	body = fmt.Sprintf(
		"Nowa rezerwacja treningu.\n\nKlient: %s\nEmail: %s\nTelefon: %s\nData: %s\nGodzina: %s\nWiadomość: %s",
		b.ClientName, b.ClientEmail, phone, b.TrainingDate, b.TrainingTime, b.Message,
	)
	return subject, body
}

func ClientReminder(b domain.Booking) (subject, body string) {
	subject = "Przypomnienie o jutrzejszym treningu"
	body = fmt.Sprintf(
		"Cześć %s!\n\nPrzypominamy o treningu jutro (%s) o godzinie %s.\n\nDo zobaczenia!",
		b.ClientName, b.TrainingDate, b.TrainingTime,
	)
	return subject, body
}
