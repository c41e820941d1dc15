package authRepository

const (
	queryCreateUser = `
INSERT INTO users (id, email, username, full_name, password, role, manager_id, is_active, created_at, updated_at)
VALUES (:id, :email, :username, :full_name, :password, :role, :manager_id, :is_active, :created_at, :updated_at)`

	userColumns = `id, email, username, full_name, password, role, manager_id, shift_start, shift_end, is_active, created_at, updated_at`

	queryGetByID = `
SELECT ` + userColumns + `
FROM users
    WHERE id = :id`

	queryGetByEmail = `
SELECT ` + userColumns + `
FROM users
    WHERE email = :email`

	queryListByManager = `
SELECT ` + userColumns + `
FROM users
    WHERE manager_id = :manager_id AND is_active = TRUE
ORDER BY username`

	queryUpdateShift = `
UPDATE users
SET shift_start = :shift_start,
    shift_end = :shift_end,
    updated_at = :updated_at
WHERE id = :id`
)

const (
	queryListUsers = `
SELECT ` + userColumns + `
FROM users
    WHERE (:role = '' OR role = :role)
ORDER BY username`

	queryUpdateUser = `
UPDATE users
SET email = :email,
    username = :username,
    full_name = :full_name,
    password = :password,
    is_active = :is_active,
    updated_at = :updated_at
WHERE id = :id`

	queryDeleteUser = `
DELETE FROM users
WHERE id = :id`

	queryCountByRole = `
SELECT role, COUNT(*) AS total
FROM users
GROUP BY role`
)
