package utils

import (
	crand "crypto/rand"
	"fmt"
	"math/big"
	"math/rand"
	"strings"

	"github.com/mozillazg/go-pinyin"
	"golang.org/x/crypto/bcrypt"

	"github.com/galhr/portal/backend/internal/domain"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "欣",
}

var departments = []string{"Engineering", "Marketing", "Sales", "HR", "Finance", "Operations"}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

// RomanizeName turns a Chinese name into a "surname.given" mailbox with digits appended to
// keep it unique, e.g. 王小明 -> wang.xiaoming42.
func RomanizeName(chineseName string) string {
	syllables := pinyin.LazyConvert(chineseName, nil)
	if len(syllables) == 0 {
		return "user" + randomDigits(4)
	}

	local := syllables[0]
	if len(syllables) > 1 {
		local += "." + strings.Join(syllables[1:], "")
	}
	return local + randomDigits(rand.Intn(3)+1)
}

func randomDigits(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(digits[rand.Intn(len(digits))])
	}
	return b.String()
}

// GenerateRandomUser creates a non-admin user; admins are never generated.
func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	name := GenerateRandomChineseName()
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := domain.RoleEmployee
	department := departments[rand.Intn(len(departments))]
	if rand.Intn(4) == 0 {
		role = domain.RoleVolunteer
		department = ""
	}

	return &domain.User{
		Email:        RomanizeName(name) + "@" + emailDomainName,
		Name:         name,
		Role:         role,
		Department:   department,
		PhoneNumber:  "+86" + "1" + randomDigits(10),
		PasswordHash: string(passwordHash),
	}, nil
}

var expenseCategories = []string{"Client Meeting", "Office Supplies", "Equipment", "Meals", "Transport", "Training"}
var places = []string{"Main Office", "Regional Office", "Client Site Downtown", "Airport", "Warehouse", "Conference Center"}

// GenerateRandomEntry builds a valid entry for owner placed within span days before ref.
func GenerateRandomEntry(ownerID int64, ref domain.Date, span int) *domain.Entry {
	if span < 1 {
		span = 1
	}
	day := ref.AddDays(-rand.Intn(span))

	var details domain.EntryDetails
	switch rand.Intn(4) {
	case 0:
		details = domain.WorkHours{Date: day, HoursWorked: float64(rand.Intn(16)+1) / 2}
	case 1:
		details = domain.Expense{
			Date:     day,
			Amount:   float64(rand.Intn(50000)+100) / 100,
			Category: expenseCategories[rand.Intn(len(expenseCategories))],
		}
	case 2:
		days := rand.Intn(5) + 1
		details = domain.Vacation{StartDate: day, EndDate: day.AddDays(days - 1), Days: days}
	default:
		from := rand.Intn(len(places))
		to := (from + 1 + rand.Intn(len(places)-1)) % len(places)
		details = domain.Travel{
			TravelDate:   day,
			FromLocation: places[from],
			ToLocation:   places[to],
			DistanceKm:   float64(rand.Intn(3000)+5) / 10,
		}
	}

	return &domain.Entry{
		OwnerID:     ownerID,
		Description: fmt.Sprintf("Generated %s entry", strings.ToLower(strings.ReplaceAll(string(details.Type()), "_", " "))),
		Details:     details,
	}
}

var digits = "0123456789"

// GenerateRandomOTP returns a six digit code from a cryptographic source.
func GenerateRandomOTP() string {
	n, err := crand.Int(crand.Reader, big.NewInt(1000000))
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64())
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	password := make([]rune, length)
	max := big.NewInt(int64(len(letters)))
	for i := range password {
		n, err := crand.Int(crand.Reader, max)
		if err != nil {
			panic(err)
		}
		password[i] = letters[n.Int64()]
	}
	return string(password)
}
