package sqlinline

// QUpsertAccount seeds an account from session claims. The stored plan is
// authoritative once the row exists; only the email is refreshed.
const QUpsertAccount = `--sql 38758d41-774d-49ad-ace8-f6658a7433a4
insert into accounts (id, email, plan, created_at, updated_at)
values ($1::text, $2::text, $3::text, now(), now())
on conflict (id) do update set
    email = case when excluded.email <> '' then excluded.email else accounts.email end,
    updated_at = now();
`

const QSelectAccountByID = `--sql dc0c0fa2-038a-4351-946f-26787550723c
select id, email, plan
from accounts
where id = $1::text
limit 1;
`

const QSelectAccountByEmail = `--sql 78845e86-8357-4b23-9cfb-2115b4cd1746
select id, email, plan
from accounts
where lower(email) = lower($1::text)
limit 1;
`

const QUpdateAccountPlan = `--sql e9099fc2-93e5-47eb-9774-f5c285bcd8ed
update accounts
set plan = $2::text,
    updated_at = now()
where id = $1::text;
`
